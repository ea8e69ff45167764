package compiler

import (
	"testing"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkStagesMatching(t *testing.T) {
	vert := newSchema(t, "#[gen(out)]\nstruct { vec3 color; vec2 uv; } vsOut;\n", common.StageVertex)
	frag := newSchema(t, "#[gen(in)]\nstruct { vec3 color; vec2 uv; } fsIn;\n", common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageGeometry, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageVertex: vert, common.StageFragment: frag},
	)
	assert.NoError(t, err)
}

func TestLinkStagesReorderFails(t *testing.T) {
	vert := newSchema(t, "#[gen(out)]\nstruct { vec3 color; vec2 uv; } vsOut;\n", common.StageVertex)
	frag := newSchema(t, "#[gen(in)]\nstruct { vec2 uv; vec3 color; } fsIn;\n", common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageVertex: vert, common.StageFragment: frag},
	)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
	assert.Contains(t, err.Error(), "color")
}

func TestLinkStagesTypeMismatch(t *testing.T) {
	vert := newSchema(t, "#[gen(out)]\nstruct { vec3 color; } vsOut;\n", common.StageVertex)
	frag := newSchema(t, "#[gen(in)]\nstruct { vec4 color; } fsIn;\n", common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageVertex: vert, common.StageFragment: frag},
	)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
	assert.Contains(t, err.Error(), "vec3")
	assert.Contains(t, err.Error(), "vec4")
}

func TestLinkStagesLengthMismatch(t *testing.T) {
	vert := newSchema(t, "#[gen(out)]\nstruct { vec3 color; vec2 uv; } vsOut;\n", common.StageVertex)
	frag := newSchema(t, "#[gen(in)]\nstruct { vec3 color; } fsIn;\n", common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageVertex: vert, common.StageFragment: frag},
	)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
	assert.Contains(t, err.Error(), "uv")
}

func TestLinkStagesGeometryFanIn(t *testing.T) {
	// geometry fan-in arrays link against the producing stage's scalar outputs
	vert := newSchema(t, "#[gen(out)]\nstruct { vec3 normal; } vsOut;\n", common.StageVertex)
	geom := newSchema(t,
		"#[gen(in)]\nstruct { vec3 normal[]; } gsIn;\n#[gen(out)]\nstruct { vec3 normal; } gsOut;\n",
		common.StageGeometry)
	frag := newSchema(t, "#[gen(in)]\nstruct { vec3 normal; } fsIn;\n", common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageGeometry, common.StageFragment},
		map[common.Stage]*stageSchema{
			common.StageVertex:   vert,
			common.StageGeometry: geom,
			common.StageFragment: frag,
		},
	)
	assert.NoError(t, err)
}

func TestLinkStagesSlotDivergence(t *testing.T) {
	// a bindgen input block declared before the gen input block shifts the gen
	// fields' slots; matching shapes alone would let the locations alias
	vert := compileSchema(t, "#[gen(out)]\nstruct { vec3 color; } vsOut;\n", common.StageVertex)
	frag := compileSchema(t,
		"#[bindgen(in)]\nstruct { vec2 extra; } aux;\n#[gen(in)]\nstruct { vec3 color; } fsIn;\n",
		common.StageFragment)

	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageVertex: vert, common.StageFragment: frag},
	)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
	assert.Contains(t, err.Error(), "location 0")
	assert.Contains(t, err.Error(), "location 1")
	assert.Contains(t, err.Error(), "color")
}

func TestLinkStagesSkipsComputeAndAbsent(t *testing.T) {
	comp := newSchema(t, "#[bindgen(uniform)]\nstruct { vec4 params; } cfg;\n", common.StageCompute)
	err := linkStages(
		[]common.Stage{common.StageVertex, common.StageFragment},
		map[common.Stage]*stageSchema{common.StageCompute: comp},
	)
	assert.NoError(t, err)
}

func TestGenInterfaceIgnoresBindGen(t *testing.T) {
	schema := newSchema(t,
		"#[bindgen(out)]\nstruct { vec4 color; } fb;\n#[gen(out)]\nstruct { vec3 n; } io;\n",
		common.StageVertex)
	iface := schema.genInterface(common.DirectionOut)
	require.Len(t, iface.Fields, 1)
	assert.Equal(t, "n", iface.Fields[0].Name)
}
