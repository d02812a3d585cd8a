package assert

import "github.com/scavenger-game/scavenger/oerror"

func IsTrue(ok bool, message string, args ...interface{}) {
	if !ok {
		panic(oerror.Newf(message, args...))
	}
}
