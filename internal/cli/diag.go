package cli

import "github.com/coreutils/goshred/internal/shred"

// ioDiag reports a wipe's diagnostics and verbose progress through an [IO],
// matching the original utility's "pass k/n (label)...offset[/size NN%]" and
// "<name>: renamed to <name>" wording.
type ioDiag struct {
	io *IO
}

var _ shred.Diag = ioDiag{}

func (d ioDiag) Error(path string, err error) {
	d.io.ErrPrintln(path+":", err)
}

func (d ioDiag) Progress(path string, passIndex, passCount int, label string, offset, size int64) {
	if size >= 0 {
		pct := int64(0)
		if size > 0 {
			pct = offset * 100 / size
		}

		d.io.Printf("%s: pass %d/%d (%s)...%s/%s %d%%\n",
			path, passIndex, passCount, label, humanSize(offset), humanSize(size), pct)

		return
	}

	d.io.Printf("%s: pass %d/%d (%s)...%s\n", path, passIndex, passCount, label, humanSize(offset))
}

func (d ioDiag) Renamed(from, to string) {
	d.io.Printf("%s: renamed to %s\n", from, to)
}
