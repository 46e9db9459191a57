package whatsapp

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"go.mau.fi/whatsmeow"
)

type browser struct {
	name string
	kind whatsmeow.PairClientType
}

var browsers = []browser{
	{"Safari", whatsmeow.PairClientSafari},
	{"Chrome", whatsmeow.PairClientChrome},
	{"Firefox", whatsmeow.PairClientFirefox},
	{"Edge", whatsmeow.PairClientEdge},
}

// browserIdentity resolves the configured browser name into the client type
// and "Browser (OS)" display name shown on the phone. "random" picks one per
// call; unknown names fall back to Safari.
func browserIdentity(name, osName string, rng *rand.Rand) (whatsmeow.PairClientType, string) {
	if osName == "" {
		osName = "Mac OS"
	}
	b := browsers[0]
	if strings.EqualFold(name, "random") {
		b = browsers[rng.IntN(len(browsers))]
	} else {
		for _, candidate := range browsers {
			if strings.EqualFold(candidate.name, name) {
				b = candidate
				break
			}
		}
	}
	return b.kind, fmt.Sprintf("%s (%s)", b.name, osName)
}
