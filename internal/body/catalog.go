package body

// Upper body segments.
var (
	ScapulaRight = Part{Name: "scapula_r", Origin: "scapula_r",
		Y:  AxisPair{From: "thorax_m", To: "torso_m"},
		YZ: AxisPair{From: "RSHO", To: "torso_m"}}
	ScapulaLeft = Part{Name: "scapula_l", Origin: "scapula_l",
		Y:  AxisPair{From: "thorax_m", To: "torso_m"},
		YZ: AxisPair{From: "LSHO", To: "torso_m"}}
	UpperArmRight = Part{Name: "upper_arm_r", Origin: "RSHO",
		Y:  AxisPair{From: "elbow_r", To: "RSHO"},
		YZ: AxisPair{From: "RELB", To: "RMELB"}}
	UpperArmLeft = Part{Name: "upper_arm_l", Origin: "LSHO",
		Y:  AxisPair{From: "elbow_l", To: "LSHO"},
		YZ: AxisPair{From: "LELB", To: "LMELB"}}
	ForearmRight = Part{Name: "forearm_r", Origin: "wrist_r",
		Y:  AxisPair{From: "wrist_r", To: "elbow_r"},
		YZ: AxisPair{From: "RWRB", To: "RWRA"}}
	ForearmLeft = Part{Name: "forearm_l", Origin: "wrist_l",
		Y:  AxisPair{From: "wrist_l", To: "elbow_l"},
		YZ: AxisPair{From: "LWRB", To: "LWRA"}}
	HandRight = Part{Name: "hand_r", Origin: "RFIN",
		Y:  AxisPair{From: "RFIN", To: "wrist_r"},
		YZ: AxisPair{From: "RWRB", To: "RWRA"}}
	HandLeft = Part{Name: "hand_l", Origin: "LFIN",
		Y:  AxisPair{From: "LFIN", To: "wrist_l"},
		YZ: AxisPair{From: "LWRB", To: "LWRA"}}
)

// Lower body segments, after the ISB hip and foot conventions (Wu et al. 2002).
var (
	HipRight = Part{Name: "hip_r", Origin: "hip_r",
		Y:  AxisPair{From: "pelvis_m", To: "thorax_m"},
		YZ: AxisPair{From: "hip_r", To: "pelvis_m"}}
	HipLeft = Part{Name: "hip_l", Origin: "hip_l",
		Y:  AxisPair{From: "pelvis_m", To: "thorax_m"},
		YZ: AxisPair{From: "hip_l", To: "pelvis_m"}}
	UpperLegRight = Part{Name: "upper_leg_r", Origin: "RTHI",
		Y:  AxisPair{From: "knee_r", To: "hip_r"},
		YZ: AxisPair{From: "RKNE", To: "RMKNE"}}
	UpperLegLeft = Part{Name: "upper_leg_l", Origin: "LTHI",
		Y:  AxisPair{From: "knee_l", To: "hip_l"},
		YZ: AxisPair{From: "LKNE", To: "LMKNE"}}
	LowerLegRight = Part{Name: "lower_leg_r", Origin: "RTIB",
		Y:  AxisPair{From: "ankle_r", To: "knee_r"},
		YZ: AxisPair{From: "RMANK", To: "RANK"}}
	LowerLegLeft = Part{Name: "lower_leg_l", Origin: "LTIB",
		Y:  AxisPair{From: "ankle_l", To: "knee_l"},
		YZ: AxisPair{From: "LMANK", To: "LANK"}}
	FootRight = Part{Name: "foot_r", Origin: "RTOE",
		X:  AxisPair{From: "RHEE", To: "RTOE"},
		XZ: AxisPair{From: "RMANK", To: "RANK"}}
	FootLeft = Part{Name: "foot_l", Origin: "LTOE",
		X:  AxisPair{From: "LHEE", To: "LTOE"},
		XZ: AxisPair{From: "LANK", To: "LMANK"}}
	HeelRight = Part{Name: "heel_r", Origin: "RHEE",
		Y:  AxisPair{From: "RHEE", To: "RTIB"},
		YZ: AxisPair{From: "RMANK", To: "RANK"}}
	HeelLeft = Part{Name: "heel_l", Origin: "LHEE",
		Y:  AxisPair{From: "LHEE", To: "LTIB"},
		YZ: AxisPair{From: "LANK", To: "LMANK"}}
)

// Parts is the segment catalog: upper body, then lower body.
var Parts = []Part{
	ScapulaRight, ScapulaLeft,
	UpperArmRight, UpperArmLeft,
	ForearmRight, ForearmLeft,
	HandRight, HandLeft,
	HipRight, HipLeft,
	UpperLegRight, UpperLegLeft,
	LowerLegRight, LowerLegLeft,
	FootRight, FootLeft,
	HeelRight, HeelLeft,
}

// Joints is the joint catalog, right before left for each joint type.
var Joints = []Joint{
	{Type: Shoulder, Proximal: ScapulaRight, Distal: UpperArmRight, Side: SideRight},
	{Type: Shoulder, Proximal: ScapulaLeft, Distal: UpperArmLeft, Side: SideLeft},
	{Type: Elbow, Proximal: UpperArmRight, Distal: ForearmRight, Side: SideRight},
	{Type: Elbow, Proximal: UpperArmLeft, Distal: ForearmLeft, Side: SideLeft},
	{Type: Wrist, Proximal: ForearmRight, Distal: HandRight, Side: SideRight},
	{Type: Wrist, Proximal: ForearmLeft, Distal: HandLeft, Side: SideLeft},

	{Type: Hip, Proximal: HipRight, Distal: UpperLegRight, Side: SideRight},
	{Type: Hip, Proximal: HipLeft, Distal: UpperLegLeft, Side: SideLeft},
	{Type: Knee, Proximal: UpperLegRight, Distal: LowerLegRight, Side: SideRight},
	{Type: Knee, Proximal: UpperLegLeft, Distal: LowerLegLeft, Side: SideLeft},
	{Type: Ankle, Proximal: HeelRight, Distal: FootRight, Side: SideRight},
	{Type: Ankle, Proximal: HeelLeft, Distal: FootLeft, Side: SideLeft},
}

// DefaultModel returns the full-body swing model built from Parts and Joints.
func DefaultModel() *Model {
	m, err := NewModel(Parts, Joints)
	if err != nil {
		panic(err)
	}
	return m
}
