package sim

// computeLoads recomputes the four per-wheel normal loads from the static
// 50/50 split plus dynamic transfer. Forward acceleration shifts load to
// the rear axle, lateral acceleration to the outside wheels. Each load is
// clamped to zero; the clamp can break exact conservation under extreme
// transfer.
func (w *World) computeLoads() {
	cfg := w.cfg
	static := cfg.MassKg * cfg.Gravity / 2.0

	longTransfer := cfg.MassKg * w.body.longAccel * cfg.CoGHeight / cfg.Wheelbase
	latTransfer := cfg.MassKg * w.body.latAccel * cfg.CoGHeight / cfg.TrackWidth

	frontAxle := static - longTransfer
	rearAxle := static + longTransfer

	// Rightward acceleration loads the left (outside) wheels.
	w.loads[WheelFL] = max0(frontAxle/2 + latTransfer)
	w.loads[WheelFR] = max0(frontAxle/2 - latTransfer)
	w.loads[WheelRL] = max0(rearAxle/2 + latTransfer)
	w.loads[WheelRR] = max0(rearAxle/2 - latTransfer)
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
