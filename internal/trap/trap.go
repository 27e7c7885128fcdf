// Package trap implements the abort-the-process sink of spec §6.3's
// `trap(msg) -> !` and the "atomic or abort" failure model of spec §4.K.
package trap

import (
	"log"
	"os"
)

// Default logs the message and exits the process, mirroring the
// teacher's cmd/service/main.go fatal-error path — relying on the host
// to restore its last snapshot of the linear memory on restart (spec §9
// "Panic-as-rollback"). The unnamed func(string) return type keeps this
// assignable directly to dbms.Trap without a conversion at call sites.
func Default() func(string) {
	return func(msg string) {
		log.Printf("pagedb: fatal: %s", msg)
		os.Exit(1)
	}
}
