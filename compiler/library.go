package compiler

// builtinLibraries returns the include snippets every compiler ships with. User
// registrations via WithLibrary layer on top and may shadow these names.
func builtinLibraries() map[string]string {
	return map[string]string{
		"rand": glslRand,
	}
}

// glslRand is a small hash-based pseudo-random helper usable from any stage.
const glslRand = `float rand(vec2 co) {
    return fract(sin(dot(co, vec2(12.9898, 78.233))) * 43758.5453);
}

float rand(vec3 co) {
    return rand(co.xy + vec2(rand(co.xz), rand(co.yz)));
}
`
