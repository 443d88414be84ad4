// Command confres inspects layered configuration: it lists the sources a
// configuration directory resolves to and resolves declared members
// against them.
//
//	confres sources --dir ./configs --env prod --env-prefix MYAPP
//	confres resolve --dir ./configs --member myapp.app.port:int:required --member myapp.app.timeout:duration
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
