// Command iseplug-stub is an example plugin helper. Install it as
// <plugin_dir>/stub.plg and open the identity "plug:stub": after the
// program is run, every line written to channel 6 is appended to the text in
// frame 0 and echoed back.
package main

import (
	"os"

	"github.com/iseio/iseio-go/pkg/plugdev"
)

func main() {
	os.Exit(plugdev.Main(plugdev.Echo(os.Stdout)))
}
