package service

// AdjustScore applies the post-hoc correction to a raw similarity score.
//
//	>= 75     +20
//	[70, 75)  +18
//	[60, 65)  +16
//	otherwise -10
//
// [65, 70) is not a band of its own and takes the -10 like scores below 60.
// Existing consumers rely on that, so it is kept. The result is not clamped:
// 100 becomes 120 and 0 becomes -10.
func AdjustScore(raw int) int {
	switch {
	case raw >= 75:
		return raw + 20
	case raw >= 70:
		return raw + 18
	case raw >= 60 && raw < 65:
		return raw + 16
	default:
		return raw - 10
	}
}
