package opengl

// Builtin GLSL programs used when the asset collaborator does not provide a
// source for a shader name. One forward program covers opaque and
// transparent materials; the fallback program flat-shades in the material
// colour; the post-process program is a textured full-screen pass.

const builtinVertexShader = `
#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inTexcoord;
layout(location = 3) in vec4 inColour;

uniform mat4 projection;
uniform mat4 model;

out vec3 v2fNormal;
out vec2 v2fTexcoord;
out vec4 v2fColour;

void main() {
    gl_Position = projection * model * vec4(inPosition, 1.0);
    v2fNormal = mat3(model) * inNormal;
    v2fTexcoord = inTexcoord;
    v2fColour = inColour;
}
`

const builtinFragmentShader = `
#version 410 core

#define MAX_LIGHTS 8

in vec3 v2fNormal;
in vec2 v2fTexcoord;
in vec4 v2fColour;

uniform vec4 diffuseColour;
uniform bool sampleTexture;
uniform sampler2D diffuseMap;
uniform int lightCount;
uniform vec4 lightColour[MAX_LIGHTS];
uniform vec3 lightDirection[MAX_LIGHTS];
uniform float lightIntensity[MAX_LIGHTS];

out vec4 outColour;

void main() {
    vec4 base = diffuseColour * v2fColour;
    if (sampleTexture) {
        base *= texture(diffuseMap, v2fTexcoord);
    }
    vec3 n = normalize(v2fNormal);
    vec3 lit = base.rgb * 0.15;
    for (int i = 0; i < lightCount; i++) {
        float ndl = max(dot(n, -normalize(lightDirection[i])), 0.0);
        lit += base.rgb * lightColour[i].rgb * lightIntensity[i] * ndl;
    }
    outColour = vec4(lit, base.a);
}
`

const fallbackFragmentShader = `
#version 410 core

uniform vec4 diffuseColour;

out vec4 outColour;

void main() {
    outColour = diffuseColour;
}
`

const postProcessVertexShader = `
#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 2) in vec2 inTexcoord;

out vec2 v2fTexcoord;

void main() {
    gl_Position = vec4(inPosition.xy, 0.0, 1.0);
    v2fTexcoord = inTexcoord;
}
`

const postProcessFragmentShader = `
#version 410 core

in vec2 v2fTexcoord;

uniform sampler2D diffuseMap;
uniform bool sampleTexture;

out vec4 outColour;

void main() {
    if (sampleTexture) {
        outColour = texture(diffuseMap, v2fTexcoord);
    } else {
        outColour = vec4(v2fTexcoord, 0.0, 1.0);
    }
}
`
