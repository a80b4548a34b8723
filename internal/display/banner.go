package display

import (
	"fmt"
	"io"

	"github.com/backmassage/muxgraph/internal/term"
)

const banner = `                          __
  __ _  __ ____ __  ___ _ _______ ____  / /
 /  ' \/ // /\ \ / / _ '/ __/ _ '/ _ \/ _ \
/_/_/_/\_,_//_\_\  \_, /_/  \_,_/ .__/_//_/
                  /___/        /_/
`

// PrintBanner writes the ASCII art banner, magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	fmt.Fprintln(w)
}
