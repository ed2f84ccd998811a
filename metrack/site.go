package metrack

import "sort"

// Site is a boundary sample point on the tracked conic. Sites are
// created by sampling or extremity seeking, refined every frame by the
// edge-search collaborator, and removed for good once their fit weight
// drops below the rejection threshold.
type Site struct {
	// Pos is the current sub-pixel position.
	Pos Point
	// Weight is the reliability of the site. The edge search seeds it and
	// the robust fit overwrites it every iteration.
	Weight float64
	// Alpha is the parametric angle of the site in [0, 2π) relative to the
	// current geometric parameters.
	Alpha float64
	// Theta is the angle of the curve normal at the site, handed to the
	// edge search so it probes across the boundary.
	Theta float64
}

// sortSitesByAlpha keeps the active set ordered along the curve. Arc
// continuity logic depends on this ordering.
func sortSitesByAlpha(sites []Site) {
	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Alpha < sites[j].Alpha
	})
}

// distinctPositions counts sites whose positions differ pairwise by
// more than a tiny tolerance. Coincident clicks or collapsed sites must
// not count toward the fit minimum.
func distinctPositions(sites []Site) int {
	const tol = 1e-9
	n := 0
	for i := range sites {
		dup := false
		for j := 0; j < i; j++ {
			if euclideanDistance(sites[i].Pos, sites[j].Pos) <= tol {
				dup = true
				break
			}
		}
		if !dup {
			n++
		}
	}
	return n
}
