package apiclient

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// ErrPrintUnsupported is returned by PrintPDF on systems without lp.
var ErrPrintUnsupported = errors.New("printing is not supported on this system")

// Opener hands PDFs to the desktop viewer and the system spooler. It
// implements draft.PDFViewer.
type Opener struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
	log  *zap.Logger
}

func NewOpener(log *zap.Logger) *Opener {
	return &Opener{goos: runtime.GOOS, run: runCommand, log: log}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

func (o *Opener) OpenPDF(ctx context.Context, path string) error {
	var err error
	switch o.goos {
	case "darwin":
		err = o.run(ctx, "open", path)
	case "windows":
		err = o.run(ctx, "cmd", "/c", "start", "", path)
	default:
		err = o.run(ctx, "xdg-open", path)
	}
	if err != nil {
		o.log.Warn("cannot open PDF", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

func (o *Opener) PrintPDF(ctx context.Context, path string) error {
	if o.goos == "windows" {
		return ErrPrintUnsupported
	}
	if err := o.run(ctx, "lp", path); err != nil {
		o.log.Warn("cannot print PDF", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("print %s: %w", path, err)
	}
	o.log.Info("PDF sent to printer", zap.String("path", path))
	return nil
}
