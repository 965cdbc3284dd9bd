/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	BridgeServer = "bridge_server"
	SyncCore     = "sync_core"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName   = flag.String("service", BridgeServer, "'bridge_server' or 'sync_core'")
)

func ParseFlags() {
	flag.Parse()
}
