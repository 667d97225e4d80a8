package compare

// maxLCSCells bounds the LCS table. Larger unmatched middles fall back to
// positional comparison.
const maxLCSCells = 4 << 20

// arraysLCS aligns left and right along a longest common subsequence of
// equal elements. Between two aligned anchors, leftover elements are paired
// up by position and compared recursively under the left index; whatever
// remains is reported as removed (left index) or added (right index).
func (d *differ) arraysLCS(left, right Array, path string) {
	start := 0
	for start < len(left) && start < len(right) && Equal(left[start], right[start]) {
		start++
	}
	endL, endR := len(left), len(right)
	for endL > start && endR > start && Equal(left[endL-1], right[endR-1]) {
		endL--
		endR--
	}

	n, m := endL-start, endR-start
	if n == 0 && m == 0 {
		return
	}
	if n*m > maxLCSCells {
		d.pairRun(left, right, seq(start, endL), seq(start, endR), path)
		return
	}

	// table[i][j] is the LCS length of left[start+i:endL] and right[start+j:endR].
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if Equal(left[start+i], right[start+j]) {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	var gapL, gapR []int
	i, j := 0, 0
	for i < n && j < m {
		if Equal(left[start+i], right[start+j]) {
			d.pairRun(left, right, gapL, gapR, path)
			gapL, gapR = gapL[:0], gapR[:0]
			i++
			j++
			continue
		}
		if table[i+1][j] >= table[i][j+1] {
			gapL = append(gapL, start+i)
			i++
		} else {
			gapR = append(gapR, start+j)
			j++
		}
	}
	for ; i < n; i++ {
		gapL = append(gapL, start+i)
	}
	for ; j < m; j++ {
		gapR = append(gapR, start+j)
	}
	d.pairRun(left, right, gapL, gapR, path)
}

// pairRun reports one unaligned run: paired elements first, then removals,
// then additions, each in ascending index order.
func (d *differ) pairRun(left, right Array, gapL, gapR []int, path string) {
	paired := min(len(gapL), len(gapR))
	for k := 0; k < paired; k++ {
		d.walk(left[gapL[k]], right[gapR[k]], indexPath(path, gapL[k]))
	}
	for _, i := range gapL[paired:] {
		d.emit(Difference{Path: indexPath(path, i), Type: Removed, Left: left[i]})
	}
	for _, j := range gapR[paired:] {
		d.emit(Difference{Path: indexPath(path, j), Type: Added, Right: right[j]})
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
