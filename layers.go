package bakeao

// LayerCount is the number of host layers.
const LayerCount = 32

// LayerMask is a set of layers, bit j standing for layer j.
type LayerMask uint32

// AllLayers interacts with every layer.
const AllLayers = ^LayerMask(0)

// Has reports whether layer is in the mask. Out of range layers are never
// members.
func (m LayerMask) Has(layer int) bool {
	if layer < 0 || layer >= LayerCount {
		return false
	}
	return m&(1<<uint(layer)) != 0
}

// With returns m with layer set.
func (m LayerMask) With(layer int) LayerMask {
	if layer < 0 || layer >= LayerCount {
		return m
	}
	return m | 1<<uint(layer)
}

// Without returns m with layer cleared.
func (m LayerMask) Without(layer int) LayerMask {
	if layer < 0 || layer >= LayerCount {
		return m
	}
	return m &^ (1 << uint(layer))
}

// LayerMatrix holds one interaction mask per baked layer: bit j of row i
// means an object on layer i is affected by objects on layer j while baking.
// The relation need not be symmetric.
type LayerMatrix [LayerCount]LayerMask

// DefaultLayerMatrix has every layer interacting with every other layer.
func DefaultLayerMatrix() LayerMatrix {
	var m LayerMatrix
	for i := range m {
		m[i] = AllLayers
	}
	return m
}

// Interacts reports bit other of row baked. Indices must be in range.
func (m *LayerMatrix) Interacts(baked, other int) bool {
	return m[baked].Has(other)
}

func validLayer(i int) bool {
	return i >= 0 && i < LayerCount
}

// layerMatrixFromRows migrates a persisted row list to a fixed matrix,
// padding missing rows with AllLayers and dropping extras. changed reports
// whether the list had the wrong length.
func layerMatrixFromRows(rows []LayerMask) (m LayerMatrix, changed bool) {
	m = DefaultLayerMatrix()
	copy(m[:], rows)
	return m, len(rows) != LayerCount
}

func (m *LayerMatrix) rows() []LayerMask {
	out := make([]LayerMask, LayerCount)
	copy(out, m[:])
	return out
}
