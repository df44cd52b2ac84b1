package congestion

// Classify は Places API の混雑度（0〜100）を 6 段階の混雑レベルへ変換する。
// popularity が nil の場合は観測値なしとして level 0 / liveData false を返す。
// liveData は観測値が報告されたかどうかのみで決まり、レベルの値には依存しない。
func Classify(popularity *int) (int, bool) {
	if popularity == nil {
		return 0, false
	}

	p := *popularity
	switch {
	case p < 20:
		return 1, true // 空いている
	case p < 40:
		return 2, true // やや混雑
	case p < 60:
		return 3, true // 混雑中
	case p < 80:
		return 4, true // かなり混雑
	default:
		return 5, true // 非常に混雑
	}
}
