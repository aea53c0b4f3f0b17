package markers

// Derivation declares one virtual landmark and the markers it is averaged from.
// Parents are listed in the order their positions are summed.
type Derivation struct {
	Name    string
	Parents []string
}

// Landmarks is the landmark derivation table of the full-body swing marker
// set. Entries are in declaration order; wrist_l derives from LWRA alone.
var Landmarks = []Derivation{
	{Name: "torso_m", Parents: []string{"RSHO", "LSHO"}},
	{Name: "thorax_m", Parents: []string{"T10", "STRN"}},
	{Name: "shoulder_r", Parents: []string{"RSHO"}},
	{Name: "shoulder_l", Parents: []string{"LSHO"}},
	{Name: "elbow_r", Parents: []string{"RELB", "RMELB"}},
	{Name: "elbow_l", Parents: []string{"LELB", "LMELB"}},
	{Name: "scapula_r", Parents: []string{"RSHO", "torso_m"}},
	{Name: "scapula_l", Parents: []string{"LSHO", "torso_m"}},
	{Name: "wrist_r", Parents: []string{"RWRA", "RWRB"}},
	{Name: "wrist_l", Parents: []string{"LWRA"}},
	{Name: "hip_r", Parents: []string{"RASI", "RPSI"}},
	{Name: "hip_l", Parents: []string{"LASI", "LPSI"}},
	{Name: "pelvis_m", Parents: []string{"hip_l", "hip_r"}},
	{Name: "knee_r", Parents: []string{"RKNE", "RMKNE"}},
	{Name: "knee_l", Parents: []string{"LKNE", "LMKNE"}},
	{Name: "ankle_r", Parents: []string{"RANK", "RMANK"}},
	{Name: "ankle_l", Parents: []string{"LANK", "LMANK"}},
	{Name: "heel_r", Parents: []string{"RHEE"}},
	{Name: "heel_l", Parents: []string{"LHEE"}},
}

// RealMarkers returns every marker name the table reads that is not itself
// derived, in first-use order.
func RealMarkers(table []Derivation) []string {
	derived := make(map[string]bool, len(table))
	for _, d := range table {
		derived[d.Name] = true
	}
	seen := make(map[string]bool)
	var names []string
	for _, d := range table {
		for _, p := range d.Parents {
			if derived[p] || seen[p] {
				continue
			}
			seen[p] = true
			names = append(names, p)
		}
	}
	return names
}
