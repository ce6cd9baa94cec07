package suppressed

// TODO: first // want `TODO without owner`
func a() {}

//nolint:todotracker
// TODO: second
func b() {}

// TODO(dana): documented
func c() {}
