package scenepack

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spheretrace/camera"
	"spheretrace/geometry"
	"spheretrace/material"
	"spheretrace/render"
	"spheretrace/scene"
	"spheretrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

const twoSpheres = `{
  "camera": {
    "eye": [5, 0, 0],
    "windowSizeX": 1, "windowSizeY": 2, "windowDistance": 1,
    "viewingDirection": [-1, 0, 0],
    "orientation": [0, 0, 1]
  },
  "spheres": [
    {"center": [0, 0, 0], "radius": 1, "color": [0, 255, 0], "roughness": 0},
    {"center": [0, 3, 0], "radius": 0.5, "color": [255, 0, 0], "roughness": 0.25}
  ],
  "lights": [{"position": [5, 1, 4]}]
}`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(twoSpheres))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.Rows != DefaultRows || p.Cols != DefaultCols {
		t.Errorf("Bad resolution; got %dx%d, want %dx%d", p.Rows, p.Cols, DefaultRows, DefaultCols)
	}
	if diff := cmp.Diff(p.Options, render.DefaultOptions()); diff != "" {
		t.Errorf("Bad options; diff (-got +want)\n%s", diff)
	}

	if len(p.Scene.Elements) != 2 {
		t.Fatalf("Bad element count; got %d, want 2", len(p.Scene.Elements))
	}
	if diff := cmp.Diff(p.Scene.Elements[1].TheGeometry, geometry.Geometry(&geometry.Sphere{Center: vec3.T{0, 3, 0}, Radius: 0.5})); diff != "" {
		t.Errorf("Bad geometry; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(p.Scene.Elements[1].TheMaterial, &material.Surface{Color: vec3.T{255, 0, 0}, Roughness: 0.25}); diff != "" {
		t.Errorf("Bad material; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(p.Scene.Lights, []scene.Light{{Position: vec3.T{5, 1, 4}}}); diff != "" {
		t.Errorf("Bad lights; diff (-got +want)\n%s", diff)
	}

	w, ok := p.Scene.Camera.(*camera.Window)
	if !ok {
		t.Fatalf("Camera is %T, want *camera.Window", p.Scene.Camera)
	}
	if w.SizeY != 2 {
		t.Errorf("Bad window size; got %v, want 2", w.SizeY)
	}
}

func TestDecodeRenderBlock(t *testing.T) {
	in := strings.Replace(twoSpheres, `"lights"`, `"render": {
    "rows": 30, "cols": 40,
    "maxBounces": 7, "policy": "multiply", "model": "direct",
    "background": [1, 2, 3], "samples": 16, "filterRadius": 0.5,
    "seed": 9, "workers": 2
  },
  "lights"`, 1)

	p, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := render.DefaultOptions()
	want.MaxBounces = 7
	want.Policy = scene.Multiplicative
	want.Model = scene.Direct
	want.Background = vec3.T{1, 2, 3}
	want.Antialiasing = render.Antialiasing{Enabled: true, SamplesPerPixel: 16, FilterRadius: 0.5}
	want.Seed = 9
	want.Workers = 2

	if diff := cmp.Diff(p.Options, want); diff != "" {
		t.Errorf("Bad options; diff (-got +want)\n%s", diff)
	}
	if p.Rows != 30 || p.Cols != 40 {
		t.Errorf("Bad resolution; got %dx%d, want 30x40", p.Rows, p.Cols)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		old   string
		new   string
		check func(error) bool
	}{
		{
			name:  "unknown field",
			old:   `"lights"`,
			new:   `"planes": [], "lights"`,
			check: func(err error) bool { return err != nil },
		},
		{
			name:  "negative radius",
			old:   `"radius": 0.5`,
			new:   `"radius": -0.5`,
			check: func(err error) bool { return errors.Is(err, geometry.ErrBadRadius) },
		},
		{
			name:  "rough mirror",
			old:   `"roughness": 0.25`,
			new:   `"roughness": 1.25`,
			check: func(err error) bool { return errors.Is(err, material.ErrBadRoughness) },
		},
		{
			name:  "skewed camera",
			old:   `"orientation": [0, 0, 1]`,
			new:   `"orientation": [1, 0, 1]`,
			check: func(err error) bool { return errors.Is(err, camera.ErrNotOrthogonal) },
		},
		{
			name:  "bad policy",
			old:   `"lights"`,
			new:   `"render": {"policy": "screen"}, "lights"`,
			check: func(err error) bool { return errors.Is(err, scene.ErrBadOptions) },
		},
		{
			name:  "zero rows",
			old:   `"lights"`,
			new:   `"render": {"rows": 0}, "lights"`,
			check: func(err error) bool { return errors.Is(err, render.ErrBadResolution) },
		},
		{
			name:  "zero bounces",
			old:   `"lights"`,
			new:   `"render": {"maxBounces": 0}, "lights"`,
			check: func(err error) bool { return errors.Is(err, render.ErrBadOptions) },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := strings.Replace(twoSpheres, tc.old, tc.new, 1)
			_, err := Decode(strings.NewReader(in))
			if !tc.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(twoSpheres), 0644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.Scene.Elements) != 2 {
		t.Errorf("Bad element count; got %d, want 2", len(p.Scene.Elements))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Bad error for missing file; got %v, want %v", err, os.ErrNotExist)
	}
}

func TestDemoFileBuilds(t *testing.T) {
	p, err := Build(DemoFile())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.Scene.Elements) != 4 || len(p.Scene.Lights) != 2 {
		t.Errorf("Bad demo scene; got %d elements and %d lights, want 4 and 2", len(p.Scene.Elements), len(p.Scene.Lights))
	}
}
