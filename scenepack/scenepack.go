// Package scenepack reads scene descriptions from JSON.
//
// A scene file looks like
//
//	{
//	  "camera": {
//	    "eye": [5, 0, 0],
//	    "windowSizeX": 1, "windowSizeY": 1, "windowDistance": 1,
//	    "viewingDirection": [-1, 0, 0],
//	    "orientation": [0, 0, 1]
//	  },
//	  "spheres": [
//	    {"center": [0, 0, 0], "radius": 1, "color": [0, 255, 0], "roughness": 0}
//	  ],
//	  "lights": [{"position": [5, 1, 4]}],
//	  "render": {"rows": 99, "cols": 99, "maxBounces": 4}
//	}
//
// Everything in the render block is optional.
package scenepack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"spheretrace/camera"
	"spheretrace/geometry"
	"spheretrace/material"
	"spheretrace/render"
	"spheretrace/scene"
	"spheretrace/vmath/vec3"
)

const (
	DefaultRows = 99
	DefaultCols = 99
)

type CameraSpec struct {
	Eye              vec3.T  `json:"eye"`
	WindowSizeX      float64 `json:"windowSizeX"`
	WindowSizeY      float64 `json:"windowSizeY"`
	WindowDistance   float64 `json:"windowDistance"`
	ViewingDirection vec3.T  `json:"viewingDirection"`
	Orientation      vec3.T  `json:"orientation"`
}

type SphereSpec struct {
	Center    vec3.T  `json:"center"`
	Radius    float64 `json:"radius"`
	Color     vec3.T  `json:"color"`
	Roughness float64 `json:"roughness"`
}

type LightSpec struct {
	Position vec3.T `json:"position"`
}

// RenderSpec overrides render.DefaultOptions.  Nil fields keep the default.
type RenderSpec struct {
	Rows *int `json:"rows,omitempty"`
	Cols *int `json:"cols,omitempty"`

	MaxBounces *int     `json:"maxBounces,omitempty"`
	Epsilon    *float64 `json:"epsilon,omitempty"`
	Policy     *string  `json:"policy,omitempty"`
	Model      *string  `json:"model,omitempty"`
	Background *vec3.T  `json:"background,omitempty"`

	// Samples above 1 turn on antialiasing.
	Samples      *int     `json:"samples,omitempty"`
	FilterRadius *float64 `json:"filterRadius,omitempty"`

	Seed    *int64 `json:"seed,omitempty"`
	Workers *int   `json:"workers,omitempty"`
}

type File struct {
	Camera  CameraSpec   `json:"camera"`
	Spheres []SphereSpec `json:"spheres"`
	Lights  []LightSpec  `json:"lights"`
	Render  *RenderSpec  `json:"render,omitempty"`
}

// Pack is a scene ready to hand to render.Capture.
type Pack struct {
	Scene   *scene.Scene
	Rows    int
	Cols    int
	Options *render.Options
}

func Load(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening scene file: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("while loading %s: %w", path, err)
	}
	return p, nil
}

func Decode(r io.Reader) (*Pack, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	file := File{}
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("while decoding scene JSON: %w", err)
	}

	return Build(file)
}

func Build(file File) (*Pack, error) {
	cam, err := camera.NewWindow(camera.WindowConfig{
		Eye:              file.Camera.Eye,
		SizeX:            file.Camera.WindowSizeX,
		SizeY:            file.Camera.WindowSizeY,
		Distance:         file.Camera.WindowDistance,
		ViewingDirection: file.Camera.ViewingDirection,
		Orientation:      file.Camera.Orientation,
	})
	if err != nil {
		return nil, fmt.Errorf("while building camera: %w", err)
	}

	elements := make([]*scene.Element, 0, len(file.Spheres))
	for i, ss := range file.Spheres {
		geom, err := geometry.NewSphere(ss.Center, ss.Radius)
		if err != nil {
			return nil, fmt.Errorf("while building sphere %d: %w", i, err)
		}
		surf, err := material.NewSurface(ss.Color, ss.Roughness)
		if err != nil {
			return nil, fmt.Errorf("while building material for sphere %d: %w", i, err)
		}
		elements = append(elements, &scene.Element{TheGeometry: geom, TheMaterial: surf})
	}

	lights := make([]scene.Light, 0, len(file.Lights))
	for _, ls := range file.Lights {
		lights = append(lights, scene.Light{Position: ls.Position})
	}

	s, err := scene.New(cam, elements, lights)
	if err != nil {
		return nil, fmt.Errorf("while assembling scene: %w", err)
	}

	p := &Pack{
		Scene:   s,
		Rows:    DefaultRows,
		Cols:    DefaultCols,
		Options: render.DefaultOptions(),
	}
	if file.Render != nil {
		if err := file.Render.apply(p); err != nil {
			return nil, fmt.Errorf("while applying render block: %w", err)
		}
	}

	if p.Rows <= 0 || p.Cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", render.ErrBadResolution, p.Rows, p.Cols)
	}
	if err := p.Options.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (rs *RenderSpec) apply(p *Pack) error {
	o := p.Options

	if rs.Rows != nil {
		p.Rows = *rs.Rows
	}
	if rs.Cols != nil {
		p.Cols = *rs.Cols
	}
	if rs.MaxBounces != nil {
		o.MaxBounces = *rs.MaxBounces
	}
	if rs.Epsilon != nil {
		o.Epsilon = *rs.Epsilon
	}
	if rs.Policy != nil {
		policy, err := scene.ParsePolicy(*rs.Policy)
		if err != nil {
			return err
		}
		o.Policy = policy
	}
	if rs.Model != nil {
		model, err := scene.ParseModel(*rs.Model)
		if err != nil {
			return err
		}
		o.Model = model
	}
	if rs.Background != nil {
		o.Background = *rs.Background
	}
	if rs.Samples != nil {
		o.Antialiasing.Enabled = *rs.Samples > 1
		o.Antialiasing.SamplesPerPixel = *rs.Samples
	}
	if rs.FilterRadius != nil {
		o.Antialiasing.FilterRadius = *rs.FilterRadius
	}
	if rs.Seed != nil {
		o.Seed = *rs.Seed
	}
	if rs.Workers != nil {
		o.Workers = *rs.Workers
	}
	return nil
}

// DemoFile is the scene rendered when no file is given: three spheres stacked
// along y above a huge blue floor, lit from the camera's side.
func DemoFile() File {
	return File{
		Camera: CameraSpec{
			Eye:              vec3.T{5, 0, 0},
			WindowSizeX:      1,
			WindowSizeY:      1,
			WindowDistance:   1,
			ViewingDirection: vec3.T{-1, 0, 0},
			Orientation:      vec3.T{0, 0, 1},
		},
		Spheres: []SphereSpec{
			{Center: vec3.T{0, 2, 0}, Radius: 1, Color: vec3.T{255, 0, 0}, Roughness: 1},
			{Center: vec3.T{0, 0, 0}, Radius: 1, Color: vec3.T{0, 255, 0}, Roughness: 0},
			{Center: vec3.T{0, -2, 0}, Radius: 1, Color: vec3.T{0, 255, 100}, Roughness: 1},
			{Center: vec3.T{0, 0, -10000}, Radius: 9999, Color: vec3.T{0, 0, 255}, Roughness: 1},
		},
		Lights: []LightSpec{
			{Position: vec3.T{5, -2, 4}},
			{Position: vec3.T{5, 1, 4}},
		},
	}
}
