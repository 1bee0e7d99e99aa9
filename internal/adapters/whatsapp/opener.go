// internal/adapters/whatsapp/opener.go
package whatsapp

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/pizzaria/checkout-backend/internal/ports"
)

// BrowserOpener opens a link in the host's default browser, in a new process
// that is never waited on.
type BrowserOpener struct{}

func NewBrowserOpener() ports.ChannelOpenerPort {
	return &BrowserOpener{}
}

func (o *BrowserOpener) Open(ctx context.Context, link string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", link)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", link)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", link)
	}
	return cmd.Start()
}
