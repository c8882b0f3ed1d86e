package shell

import (
	"os/exec"
	"runtime"

	"github.com/rotisserie/eris"
)

// DefaultHelpURL is the product help page.
const DefaultHelpURL = "https://store.codestam.com/LGAMA-G"

// Opener opens a URL in the user's browser.
type Opener func(url string) error

// OpenURL opens url with the platform's default handler.
func OpenURL(url string) error {
	name, args := openCommand(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		return eris.Wrapf(err, "shell: open %s", url)
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}
