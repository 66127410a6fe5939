package component

import "github.com/milk9111/propsim/common"

type Material struct {
	Name     string
	Emissive bool
	Color    common.Vec4
}

type Materials struct {
	Items []Material
}

var MaterialsComponent = NewComponent[Materials]()
