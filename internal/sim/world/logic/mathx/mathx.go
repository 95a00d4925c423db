package mathx

type Integer interface {
	~int | ~int32 | ~int64
}

func FloorDiv[T Integer](a, b T) T {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod[T Integer](a, b T) T {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt[T Integer](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
