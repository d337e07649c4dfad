package banner

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

func Print() {
	logo, _ := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithRGB("Dock", pterm.NewRGB(0, 150, 199)),
		putils.LettersFromStringWithRGB("Log", pterm.NewRGB(255, 183, 3))).
		Srender()

	pterm.DefaultCenter.Print(logo)

	pterm.Info.Println(
		"DockLog Forwarder - tails your container logs and pushes the lines that matter." +
			"\nPolling-based, rotation-aware, ntfy-ready.",
	)
}
