package landmark

// OpenPalm returns a right hand with all fingers extended upward, in
// normalized image coordinates.
func OpenPalm() Set {
	s := make(Set, NumLandmarks)

	s[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	s[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	s[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	s[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	s[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	s[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	s[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	s[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	s[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	s[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	s[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	s[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	s[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	s[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	s[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	s[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	s[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	s[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	s[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	s[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	s[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return s
}

// PointingLeft returns a right hand with the index finger extended toward
// the left edge of the frame and the other fingers curled.
func PointingLeft() Set {
	s := make(Set, NumLandmarks)

	s[Wrist] = Point3D{X: 0.6, Y: 0.6, Z: 0.0}

	s[ThumbCMC] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	s[ThumbMCP] = Point3D{X: 0.54, Y: 0.52, Z: 0.0}
	s[ThumbIP] = Point3D{X: 0.52, Y: 0.53, Z: 0.0}
	s[ThumbTip] = Point3D{X: 0.51, Y: 0.55, Z: 0.0}

	s[IndexMCP] = Point3D{X: 0.50, Y: 0.56, Z: -0.01}
	s[IndexPIP] = Point3D{X: 0.42, Y: 0.56, Z: -0.01}
	s[IndexDIP] = Point3D{X: 0.36, Y: 0.56, Z: -0.01}
	s[IndexTip] = Point3D{X: 0.30, Y: 0.56, Z: -0.01}

	s[MiddleMCP] = Point3D{X: 0.50, Y: 0.60, Z: -0.02}
	s[MiddlePIP] = Point3D{X: 0.47, Y: 0.61, Z: -0.05}
	s[MiddleDIP] = Point3D{X: 0.49, Y: 0.63, Z: -0.04}
	s[MiddleTip] = Point3D{X: 0.51, Y: 0.62, Z: -0.02}

	s[RingMCP] = Point3D{X: 0.51, Y: 0.64, Z: -0.02}
	s[RingPIP] = Point3D{X: 0.48, Y: 0.65, Z: -0.05}
	s[RingDIP] = Point3D{X: 0.50, Y: 0.67, Z: -0.04}
	s[RingTip] = Point3D{X: 0.52, Y: 0.66, Z: -0.02}

	s[PinkyMCP] = Point3D{X: 0.53, Y: 0.68, Z: -0.02}
	s[PinkyPIP] = Point3D{X: 0.50, Y: 0.69, Z: -0.05}
	s[PinkyDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	s[PinkyTip] = Point3D{X: 0.54, Y: 0.70, Z: -0.02}

	return s
}
