package calendar

var locationPalette = [...]string{
	"#7B1CD7", "#11A3D4", "#6C18BB", "#0F8FB8", "#9F4CF5",
	"#3EB3DB", "#8A20F2", "#0D7A9D", "#B378F7", "#0B6581",
}

// LocationColor picks a stable palette color for a location name.
func LocationColor(name string) string {
	var hash int32
	for _, r := range name {
		hash = int32(r) + (hash << 5) - hash
	}
	idx := int(hash) % len(locationPalette)
	if idx < 0 {
		idx = -idx
	}
	return locationPalette[idx]
}
