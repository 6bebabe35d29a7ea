package wifi

import "sort"

// SortNetworks sorts a slice of Network entries in place.
// The sorting order is:
// 1. Connected network first.
// 2. Networks with a stored profile.
// 3. Signal quality (strongest first).
// 4. Fallback to SSID alphabetically.
func SortNetworks(networks []Network) {
	sort.SliceStable(networks, func(i, j int) bool {
		return networkLess(networks[i], networks[j])
	})
}

// SortAccessPoints sorts access points in the same order as SortNetworks.
func SortAccessPoints(aps []*AccessPoint) {
	sort.SliceStable(aps, func(i, j int) bool {
		return networkLess(aps[i].network, aps[j].network)
	})
}

func networkLess(a, b Network) bool {
	if a.Connected() != b.Connected() {
		return a.Connected()
	}

	aKnown, bKnown := a.ProfileName != "", b.ProfileName != ""
	if aKnown != bKnown {
		return aKnown
	}

	if a.SignalQuality != b.SignalQuality {
		return a.SignalQuality > b.SignalQuality
	}

	return a.SSID.String() < b.SSID.String()
}
