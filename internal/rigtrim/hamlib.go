package rigtrim

import (
	"github.com/xylo04/goHamlib"
)

// OpenHamlibRig opens a rig via goHamlib (model/port per `rigctl --list`)
// and adapts it to the Rig seam Trimmer depends on. VFO is always
// goHamlib.VFOCurrent: goesrecv never changes the rig's selected VFO,
// only its frequency.
func OpenHamlibRig(model int, port string) (Rig, func() error, error) {
	rig := goHamlib.NewRig(goHamlib.RigModel(model))
	if err := rig.Open(port); err != nil {
		return Rig{}, nil, err
	}

	return Rig{
		GetFreq: func() (float64, error) {
			return rig.GetFreq(goHamlib.VFOCurrent)
		},
		SetFreq: func(hz float64) error {
			return rig.SetFreq(goHamlib.VFOCurrent, hz)
		},
	}, rig.Close, nil
}
