package app

import (
	"github.com/specialistvlad/lightpath/internal/registry"
	"github.com/specialistvlad/lightpath/modules/detector"
	"github.com/specialistvlad/lightpath/modules/electronic"
	"github.com/specialistvlad/lightpath/modules/throughput"
)

// coreModules is the definitive list of all effect modules that are
// compiled into the lightpath binary.
var coreModules = []registry.Module{
	&electronic.Module{},
	&detector.Module{},
	&throughput.Module{},
}
