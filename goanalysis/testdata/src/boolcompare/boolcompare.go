package boolcompare

func f(ok bool) bool {
	if ok == true { // want `comparison with true is redundant; use the operand directly`
		return !ok
	}
	return ok != false // want `comparison with false is redundant`
}

func g(done bool) int {
	if done == false { // want `comparison with false is redundant`
		return 1
	}
	return 0
}
