// Package material holds the material and texture definitions attached
// to generated meshes. The library is a plain value constructed by the
// caller and passed where needed; there is no process-wide registry.
package material

// RGBA is a color with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Texture is an image file referenced by a material.
type Texture struct {
	Name     string
	FilePath string
}

// Material describes Lambert shading parameters for a mesh surface.
type Material struct {
	Name     string
	Diffuse  RGBA
	Specular RGBA
	Emission RGBA
	Opacity  float64

	// DiffuseTexture overrides the diffuse color when set.
	DiffuseTexture *Texture
}

// Library is a set of named materials and textures.
type Library struct {
	materials map[string]*Material
	textures  map[string]*Texture
}

// Stock material names used by the mesh generator.
const (
	Asphalt           = "Asphalt"
	Shoulder          = "Shoulder"
	LaneMarkingWhite  = "LaneMarkingWhite"
	LaneMarkingYellow = "LaneMarkingYellow"
)

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		materials: make(map[string]*Material),
		textures:  make(map[string]*Texture),
	}
}

// DefaultLibrary returns a library populated with the stock road
// materials: dark asphalt, a lighter shoulder, and the two lane-mark
// paints.
func DefaultLibrary() *Library {
	lib := NewLibrary()
	lib.Add(&Material{Name: Asphalt, Diffuse: RGBA{0.3, 0.3, 0.3, 1}, Opacity: 1})
	lib.Add(&Material{Name: Shoulder, Diffuse: RGBA{0.4, 0.4, 0.4, 1}, Opacity: 1})
	lib.Add(&Material{Name: LaneMarkingWhite, Diffuse: RGBA{1, 1, 1, 1}, Opacity: 1})
	lib.Add(&Material{Name: LaneMarkingYellow, Diffuse: RGBA{1, 1, 0, 1}, Opacity: 1})
	return lib
}

// Add registers a material, replacing any existing one with the same name.
func (l *Library) Add(m *Material) {
	l.materials[m.Name] = m
}

// Get returns the named material, or nil.
func (l *Library) Get(name string) *Material {
	return l.materials[name]
}

// Names returns all material names in unspecified order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.materials))
	for name := range l.materials {
		names = append(names, name)
	}
	return names
}

// AddTexture registers a texture.
func (l *Library) AddTexture(t *Texture) {
	l.textures[t.Name] = t
}

// Texture returns the named texture, or nil.
func (l *Library) Texture(name string) *Texture {
	return l.textures[name]
}

// TextureNames returns all texture names in unspecified order.
func (l *Library) TextureNames() []string {
	names := make([]string, 0, len(l.textures))
	for name := range l.textures {
		names = append(names, name)
	}
	return names
}
