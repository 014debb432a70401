package meshprep

// EncodeUnitVector packs a unit-length component in [-1, 1] into the
// unsigned byte encoding spec §3 describes for Vertex.Normal/Vertex.Tangent:
// byte = round(v*127) + 127, so the stored range is [0, 254] and decoding
// with DecodeUnitVector recovers the original value. This is the concrete
// reading of spec §3's "(v+127)/127 recovers -1...1" — the decode side is
// literal, encode is its inverse.
func EncodeUnitVector(v float32) uint8 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return uint8(int32(v*127+0.5*sign(v)) + 127)
}

// DecodeUnitVector inverts EncodeUnitVector, matching spec §3 exactly:
// (v+127)/127 where v here is the signed byte value centered at 0.
func DecodeUnitVector(b uint8) float32 {
	signed := int32(b) - 127
	return float32(signed) / 127
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// packNormalTangent encodes a world-space normal, tangent, and handedness
// sign into the 4+4 byte layout Vertex stores.
func packNormalTangent(normal, tangent [3]float32, handedness float32) (n, t [4]uint8) {
	n = [4]uint8{
		EncodeUnitVector(normal[0]),
		EncodeUnitVector(normal[1]),
		EncodeUnitVector(normal[2]),
		127, // unused lane, kept at the encoded-zero midpoint
	}
	t = [4]uint8{
		EncodeUnitVector(tangent[0]),
		EncodeUnitVector(tangent[1]),
		EncodeUnitVector(tangent[2]),
		EncodeUnitVector(handedness),
	}
	return n, t
}
