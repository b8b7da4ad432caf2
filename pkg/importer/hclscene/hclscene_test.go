package hclscene

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

const chairManifest = `
node "chair" {
  transform {
    translate = [0, 0, 10]
    rotate    = [0, 0, 90]
  }

  node "seat" {
    box {
      size = [var.width, var.width, 4]
    }
  }

  node "leg" {
    cylinder {
      height = 30
      radius = max(1, var.width / 20)
    }
  }

  node "finish" {
    end_point = true
    material "oak" {
      color = "#c8a165"
    }
  }
}

node "arm" {
  bone "upper" {
    offset = [0, 10, 0]
  }
}
`

func load(t *testing.T, src string, vars map[string]cty.Value) (*scenegraph.SceneGraph, error) {
	t.Helper()
	return Load(context.Background(), "test.hcl", []byte(src), vars)
}

func TestLoadChair(t *testing.T) {
	g, err := load(t, chairManifest, map[string]cty.Value{"width": cty.NumberIntVal(40)})
	require.NoError(t, err)
	require.Equal(t, 6, g.NodeCount())

	td, ok := scenegraph.ContentAs[*datatypes.TransformData](g, g.Find("chair"))
	require.True(t, ok)
	require.Equal(t, datatypes.Vec3{Z: 10}, td.Translate)
	require.Equal(t, datatypes.Vec3{Z: 90}, td.Rotate)

	seat, ok := scenegraph.ContentAs[*datatypes.PrimitiveData](g, g.Find("chair.seat"))
	require.True(t, ok)
	require.Equal(t, datatypes.PrimBox, seat.Kind)
	require.Equal(t, datatypes.Vec3{X: 40, Y: 40, Z: 4}, seat.Size)

	leg, ok := scenegraph.ContentAs[*datatypes.PrimitiveData](g, g.Find("chair.leg"))
	require.True(t, ok)
	require.Equal(t, datatypes.PrimCylinder, leg.Kind)
	require.Equal(t, 2.0, leg.Radius)

	finish := g.Find("chair.finish")
	require.True(t, g.IsNodeEndPoint(finish))
	mat, ok := scenegraph.ContentAs[*datatypes.MaterialData](g, finish)
	require.True(t, ok)
	require.Equal(t, "oak", mat.Name)
	require.Equal(t, "#c8a165", mat.Color)

	bone, ok := scenegraph.ContentAs[*datatypes.BoneData](g, g.Find("arm"))
	require.True(t, ok)
	require.Equal(t, "upper", bone.Name)
	require.Equal(t, datatypes.Vec3{Y: 10}, bone.Offset)

	require.Empty(t, scenegraph.Validate(g))
}

func TestLoadOptionalVectorsDefaultToZero(t *testing.T) {
	g, err := load(t, `
node "pivot" {
  transform {}
}
`, nil)
	require.NoError(t, err)
	td, ok := scenegraph.ContentAs[*datatypes.TransformData](g, g.Find("pivot"))
	require.True(t, ok)
	require.True(t, td.Translate.IsZero())
	require.True(t, td.Rotate.IsZero())
}

func TestLoadMesh(t *testing.T) {
	g, err := load(t, `
node "tri" {
  mesh {
    vertices = [0, 0, 0, 1, 0, 0, 0, 1, 0]
    indices  = [0, 1, 2]
  }
}
`, nil)
	require.NoError(t, err)
	md, ok := scenegraph.ContentAs[*datatypes.MeshData](g, g.Find("tri"))
	require.True(t, ok)
	require.Equal(t, 3, md.VertexCount())
	require.Equal(t, 1, md.TriangleCount())
	require.Equal(t, "manifest", md.Source)
}

func TestLoadEmpty(t *testing.T) {
	g, err := load(t, "", nil)
	require.NoError(t, err)
	require.Equal(t, 1, g.NodeCount())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
		want    string
	}{
		{
			name: "syntax error",
			src:  `node "a" {`,
			want: "failed to parse",
		},
		{
			name: "unknown block",
			src:  `widget "a" {}`,
			want: "failed to decode",
		},
		{
			name: "missing box size",
			src:  "node \"a\" {\n  box {}\n}",
			want: "box requires size",
		},
		{
			name: "null box size",
			src:  "node \"a\" {\n  box {\n    size = null\n  }\n}",
			want: "box requires size",
		},
		{
			name: "undefined variable",
			src:  "node \"a\" {\n  box {\n    size = [var.nope, 1, 1]\n  }\n}",
			want: "box size",
		},
		{
			name: "short vector",
			src:  "node \"a\" {\n  box {\n    size = [1, 2]\n  }\n}",
			want: "expected 3 components",
		},
		{
			name: "non-numeric vector",
			src:  "node \"a\" {\n  box {\n    size = [\"x\", 1, 1]\n  }\n}",
			want: "expected a list of three numbers",
		},
		{
			name:    "two payloads",
			src:     "node \"a\" {\n  sphere {\n    radius = 1\n  }\n  material \"m\" {}\n}",
			invalid: true,
			want:    "at most one",
		},
		{
			name:    "end point with children",
			src:     "node \"a\" {\n  end_point = true\n  node \"b\" {}\n}",
			invalid: true,
			want:    "end point has children",
		},
		{
			name:    "duplicate sibling",
			src:     "node \"a\" {}\nnode \"a\" {}",
			invalid: true,
			want:    "duplicate",
		},
		{
			name:    "dotted name",
			src:     `node "a.b" {}`,
			invalid: true,
			want:    "invalid node name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := load(t, tt.src, nil)
			require.Error(t, err)
			require.Nil(t, g)
			require.Contains(t, err.Error(), tt.want)
			if tt.invalid {
				require.ErrorIs(t, err, ErrInvalidScene)
			}
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, "test.hcl", []byte(`node "a" {}`), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.hcl")
	require.NoError(t, os.WriteFile(path, []byte("node \"a\" {\n  sphere {\n    radius = 3\n  }\n}"), 0o644))

	g, err := LoadFile(context.Background(), path, nil)
	require.NoError(t, err)
	p, ok := scenegraph.ContentAs[*datatypes.PrimitiveData](g, g.Find("a"))
	require.True(t, ok)
	require.Equal(t, 3.0, p.Radius)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}
