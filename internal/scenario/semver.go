package scenario

import (
	"strconv"
	"strings"
)

// compareVersions implements §4.2's version ordering: semver numeric
// per-dot-segment, left to right, shorter wins ties via implicit zero
// (so "1.2" == "1.2.0"). Non-numeric segments compare as strings. Returns
// <0, 0, >0 the way strings.Compare does.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		} else {
			sa = "0"
		}
		if i < len(bs) {
			sb = bs[i]
		} else {
			sb = "0"
		}
		if sa == sb {
			continue
		}
		na, aerr := strconv.Atoi(sa)
		nb, berr := strconv.Atoi(sb)
		if aerr == nil && berr == nil {
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if sa < sb {
			return -1
		}
		return 1
	}
	return 0
}
