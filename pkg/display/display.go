// Package display renders the node's periodic terminal status line, the
// ambient concern spec.md gates behind the --display flag. Grounded on
// github.com/fatih/color, the terminal-color library several corpus
// repos (CustosLigni-Olivetum-PoW, Klingon-tech-klingnet, MVerseZ-cerera,
// bsv-blockchain-teranode) pull in for exactly this kind of human-facing
// status output; the teacher itself has no terminal display component,
// so this package is new rather than adapted, following the corpus's
// idiom instead.
package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
)

// Status is the snapshot of node state one refresh prints.
type Status struct {
	TipHash     ubilog.Hash
	TipHeight   uint64
	TipWork     *uint256.Int
	PeerCount   int
	MempoolSize int
	BlocksMined uint64
}

var (
	labelColor = color.New(color.FgCyan, color.Bold)
	hashColor  = color.New(color.FgYellow)
	numColor   = color.New(color.FgGreen)
)

// Render writes one status line to w.
func Render(w io.Writer, s Status) {
	labelColor.Fprint(w, "ubilog ")
	fmt.Fprint(w, "tip=")
	hashColor.Fprintf(w, "%s", shortHash(s.TipHash))
	fmt.Fprint(w, " height=")
	numColor.Fprintf(w, "%d", s.TipHeight)
	fmt.Fprint(w, " work=")
	numColor.Fprintf(w, "%s", s.TipWork.String())
	fmt.Fprint(w, " peers=")
	numColor.Fprintf(w, "%d", s.PeerCount)
	fmt.Fprint(w, " mempool=")
	numColor.Fprintf(w, "%d", s.MempoolSize)
	fmt.Fprint(w, " mined=")
	numColor.Fprintf(w, "%d", s.BlocksMined)
	fmt.Fprintln(w)
}

func shortHash(h ubilog.Hash) string {
	s := h.Hex()
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}
