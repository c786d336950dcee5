package rlgfx

// builtinShaders are used when the shader directory does not hold a file of the
// same name. Attribute and matrix names follow raylib's defaults; texture0 is
// the diffuse map, texture2 the bump map and cubeTex the cubemap.
var builtinShaders = map[string]string{
	"skyboxVertex.glsl":     skyVS,
	"skyboxFragment.glsl":   skyFS,
	"PerPixelVertex.glsl":   litVS,
	"PerPixelFragment.glsl": terrainFS,
	"reflectVertex.glsl":    reflectVS,
	"reflectFragment.glsl":  reflectFS,
	"SceneVertex.glsl":      litVS,
	"SceneFragment.glsl":    sceneFS,
	"staticVertex.glsl":     litVS,
	"staticFragment.glsl":   staticFS,
	"skinningVertex.glsl":   litVS,
	"texturedFragment.glsl": staticFS,
	"TexturedVertex.glsl":   screenVS,
	"TexturedFragment.glsl": screenFS,
	"processfrag.glsl":      blurFS,
}

const (
	skyVS = `#version 330
in vec3 vertexPosition;
uniform mat4 matModel;
uniform mat4 viewMatrix;
uniform mat4 projMatrix;
out vec3 fragDir;
void main() {
  vec3 pos = (matModel * vec4(vertexPosition, 1.0)).xyz;
  vec3 eye = vec3(pos.x / projMatrix[0][0], pos.y / projMatrix[1][1], -1.0);
  fragDir = transpose(mat3(viewMatrix)) * eye;
  gl_Position = vec4(pos.xy, 1.0, 1.0);
}
`
	skyFS = `#version 330
in vec3 fragDir;
uniform samplerCube cubeTex;
out vec4 finalColor;
void main() {
  finalColor = texture(cubeTex, normalize(fragDir));
}
`
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = vertexTexCoord;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	// pointLight is shared by the lit fragment shaders.
	pointLight = `
uniform vec3 cameraPos;
uniform vec3 lightPos;
uniform vec4 lightColour;
uniform float lightRadius;
uniform vec4 ambient;
uniform float specularPower;
uniform float specularStrength;
vec3 shade(vec3 albedo, vec3 N, vec3 P) {
  vec3 toLight = lightPos - P;
  float atten = 1.0 - clamp(length(toLight) / lightRadius, 0.0, 1.0);
  vec3 L = normalize(toLight);
  vec3 V = normalize(cameraPos - P);
  vec3 H = normalize(L + V);
  float NdotL = max(dot(N, L), 0.0);
  float spec = pow(max(dot(N, H), 0.0), specularPower) * specularStrength;
  vec3 lit = (albedo * NdotL + lightColour.rgb * spec * step(0.0, NdotL)) * lightColour.rgb * atten;
  return ambient.rgb * albedo + lit;
}
`
	terrainFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform sampler2D texture0;
uniform sampler2D texture2;
uniform vec4 colDiffuse;
out vec4 finalColor;
` + pointLight + `
void main() {
  vec2 uv = fragTexCoord * 16.0;
  vec3 n = normalize(fragNormal);
  vec3 t = normalize(vec3(1.0, 0.0, 0.0) - n * n.x);
  mat3 tbn = mat3(t, cross(n, t), n);
  vec3 N = normalize(tbn * (texture(texture2, uv).rgb * 2.0 - 1.0));
  vec4 albedo = texture(texture0, uv) * colDiffuse;
  finalColor = vec4(shade(albedo.rgb, N, fragPosition), albedo.a);
}
`
	reflectVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
uniform mat4 textureMatrix;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = (textureMatrix * vec4(vertexTexCoord, 0.0, 1.0)).xy;
  fragNormal = normalize(mat3(matModel) * vertexNormal);
  gl_Position = matProjection * matView * worldPos;
}
`
	reflectFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform sampler2D texture0;
uniform samplerCube cubeTex;
uniform vec4 colDiffuse;
uniform vec3 cameraPos;
uniform vec4 lightColour;
out vec4 finalColor;
void main() {
  vec4 diffuse = texture(texture0, fragTexCoord) * colDiffuse;
  vec3 I = normalize(fragPosition - cameraPos);
  vec4 reflection = texture(cubeTex, reflect(I, normalize(fragNormal)));
  finalColor = vec4((diffuse.rgb * 0.25 + reflection.rgb * 0.75) * lightColour.rgb, diffuse.a);
}
`
	sceneFS = `#version 330
in vec2 fragTexCoord;
uniform sampler2D texture0;
uniform vec4 nodeColour;
uniform int useTexture;
out vec4 finalColor;
void main() {
  finalColor = nodeColour;
  if (useTexture > 0) {
    finalColor *= texture(texture0, fragTexCoord);
  }
}
`
	staticFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform sampler2D texture0;
uniform vec4 colDiffuse;
out vec4 finalColor;
` + pointLight + `
void main() {
  vec4 albedo = texture(texture0, fragTexCoord) * colDiffuse;
  if (albedo.a < 0.1) discard;
  finalColor = vec4(shade(albedo.rgb, normalize(fragNormal), fragPosition), albedo.a);
}
`
	screenVS = `#version 330
in vec3 vertexPosition;
uniform mat4 mvp;
out vec2 fragTexCoord;
void main() {
  vec4 pos = mvp * vec4(vertexPosition, 1.0);
  fragTexCoord = pos.xy * 0.5 + 0.5;
  gl_Position = vec4(pos.xy, 0.0, 1.0);
}
`
	screenFS = `#version 330
in vec2 fragTexCoord;
uniform sampler2D texture0;
out vec4 finalColor;
void main() {
  finalColor = texture(texture0, fragTexCoord);
}
`
	blurFS = `#version 330
in vec2 fragTexCoord;
uniform sampler2D texture0;
uniform float weights[15];
uniform int taps;
uniform vec2 texelSize;
uniform float isVertical;
out vec4 finalColor;
void main() {
  vec2 dir = isVertical > 0.5 ? vec2(0.0, texelSize.y) : vec2(texelSize.x, 0.0);
  int mid = taps / 2;
  vec4 sum = vec4(0.0);
  for (int i = 0; i < taps; i++) {
    sum += texture(texture0, fragTexCoord + dir * float(i - mid)) * weights[i];
  }
  finalColor = sum;
}
`
)
