// ABOUTME: Build identity constants
// ABOUTME: Reported by the -version flag and in session logs
package version

const (
	Version      = "0.3.0"
	Product      = "Resound"
	Manufacturer = "Hollowpine"
)

// String returns the full product identifier.
func String() string {
	return Product + " " + Version
}
