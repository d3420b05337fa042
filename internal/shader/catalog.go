package shader

// SocketType is the data type carried by a socket.
type SocketType int

const (
	SocketFloat SocketType = iota
	SocketVector
	SocketColor
	SocketShader
)

// String returns the socket type name.
func (t SocketType) String() string {
	switch t {
	case SocketFloat:
		return "float"
	case SocketVector:
		return "vector"
	case SocketColor:
		return "color"
	case SocketShader:
		return "shader"
	}
	return "unknown"
}

// Socket names shared by several builders.
const (
	SocketBaseColor = "Base Color"
	SocketMetallic  = "Metallic"
	SocketRoughness = "Roughness"
	SocketAlpha     = "Alpha"
	SocketBSDF      = "BSDF"
	SocketSurface   = "Surface"
	SocketUV        = "UV"
	SocketVectorIn  = "Vector"
	SocketColorOut  = "Color"
	SocketX         = "X"
	SocketY         = "Y"
	SocketZ         = "Z"

	// Math nodes address their operands by position.
	MathA     = "Value"
	MathB     = "Value_001"
	MathC     = "Value_002"
	MathOut   = "Value"
	VecA      = "Vector"
	VecB      = "Vector_001"
	VecScale  = "Scale"
	VecOut    = "Vector"
	VecOutVal = "Value"
)

type socketDef struct {
	name string
	typ  SocketType
	def  Value
}

type nodeDef struct {
	inputs  []socketDef
	outputs []socketDef
}

func (d nodeDef) input(name string) (socketDef, bool) {
	for _, s := range d.inputs {
		if s.name == name {
			return s, true
		}
	}
	return socketDef{}, false
}

func (d nodeDef) output(name string) (socketDef, bool) {
	for _, s := range d.outputs {
		if s.name == name {
			return s, true
		}
	}
	return socketDef{}, false
}

// catalog returns the socket layout of every node kind for a profile.
func catalog(p Profile) map[NodeKind]nodeDef {
	return map[NodeKind]nodeDef{
		KindOutput: {
			inputs: []socketDef{{SocketSurface, SocketShader, Value{}}},
		},
		KindPrincipled: {
			inputs: []socketDef{
				{SocketBaseColor, SocketColor, Value{0.8, 0.8, 0.8, 1}},
				{SocketMetallic, SocketFloat, Float(0)},
				{SocketRoughness, SocketFloat, Float(0.5)},
				{p.SpecularInput, SocketFloat, Float(0.5)},
				{SocketAlpha, SocketFloat, Float(1)},
			},
			outputs: []socketDef{{SocketBSDF, SocketShader, Value{}}},
		},
		KindTexCoord: {
			outputs: []socketDef{
				{"Generated", SocketVector, Value{}},
				{SocketUV, SocketVector, Value{}},
			},
		},
		KindSeparateXYZ: {
			inputs: []socketDef{{SocketVectorIn, SocketVector, Value{}}},
			outputs: []socketDef{
				{SocketX, SocketFloat, Value{}},
				{SocketY, SocketFloat, Value{}},
				{SocketZ, SocketFloat, Value{}},
			},
		},
		KindCombineXYZ: {
			inputs: []socketDef{
				{SocketX, SocketFloat, Value{}},
				{SocketY, SocketFloat, Value{}},
				{SocketZ, SocketFloat, Value{}},
			},
			outputs: []socketDef{{SocketVectorIn, SocketVector, Value{}}},
		},
		KindImageTexture: {
			inputs: []socketDef{{SocketVectorIn, SocketVector, Value{}}},
			outputs: []socketDef{
				{SocketColorOut, SocketColor, Value{}},
				{SocketAlpha, SocketFloat, Value{}},
			},
		},
		KindSeparateColor: {
			inputs: []socketDef{{"Color", SocketColor, Value{0.8, 0.8, 0.8, 1}}},
			outputs: []socketDef{
				{"Red", SocketFloat, Value{}},
				{"Green", SocketFloat, Value{}},
				{"Blue", SocketFloat, Value{}},
			},
		},
		KindSeparateRGB: {
			inputs: []socketDef{{"Image", SocketColor, Value{0.8, 0.8, 0.8, 1}}},
			outputs: []socketDef{
				{"R", SocketFloat, Value{}},
				{"G", SocketFloat, Value{}},
				{"B", SocketFloat, Value{}},
			},
		},
		KindMath: {
			inputs: []socketDef{
				{MathA, SocketFloat, Float(0.5)},
				{MathB, SocketFloat, Float(0.5)},
				{MathC, SocketFloat, Float(0.5)},
			},
			outputs: []socketDef{{MathOut, SocketFloat, Value{}}},
		},
		KindVectorMath: {
			inputs: []socketDef{
				{VecA, SocketVector, Value{}},
				{VecB, SocketVector, Value{}},
				{VecScale, SocketFloat, Float(1)},
			},
			outputs: []socketDef{
				{VecOut, SocketVector, Value{}},
				{VecOutVal, SocketFloat, Value{}},
			},
		},
	}
}
