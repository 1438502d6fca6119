// ABOUTME: Build identity constants
// ABOUTME: Version, product and manufacturer strings for hello messages
package version

const (
	// Version is the player release version.
	Version = "0.1.0"

	// Product is the product name sent in hello messages.
	Product = "Vocalis Player"

	// Manufacturer identifies the project.
	Manufacturer = "Vocalis Audio"
)
