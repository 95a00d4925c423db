package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Viewport        [2]int `json:"viewport"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	Textures        TextureInfo `json:"textures"`
	Target          [3]int      `json:"target"`
}

type WorldParams struct {
	WorldID          string     `json:"world_id"`
	Seed             int64      `json:"seed"`
	ChunkSize        int        `json:"chunk_size"`
	SpawningDistance int        `json:"spawning_distance"`
	RenderDistance   int        `json:"render_distance"`
	Spawn            [3]float32 `json:"spawn"`
}

type TextureInfo struct {
	Path      string            `json:"path"`
	Layers    int               `json:"layers"`
	Digest    string            `json:"digest"`
	Materials []MaterialTexture `json:"materials"`
	Fallback  [3]uint32         `json:"fallback"` // any material id not listed
}

type MaterialTexture struct {
	ID      uint8     `json:"id"`
	Name    string    `json:"name"`
	Texture [3]uint32 `json:"texture"`
}

// CAMERA (client -> server): camera pose in world space, angles in radians.
type CameraMsg struct {
	Type     string     `json:"type"`
	Pos      [3]float32 `json:"pos"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	FovY     float32    `json:"fov_y,omitempty"`
	Viewport [2]int     `json:"viewport,omitempty"`
}

// CURSOR_MOVED (client -> server): viewport pixels, origin top-left.
type CursorMovedMsg struct {
	Type string     `json:"type"`
	Pos  [2]float32 `json:"pos"`
}

// BUTTON (client -> server)
type ButtonMsg struct {
	Type    string `json:"type"`
	Button  string `json:"button"`
	Pressed bool   `json:"pressed"`
}

// CHUNK_REQ (client -> server)
type ChunkReqMsg struct {
	Type  string `json:"type"`
	Chunk [3]int `json:"chunk"`
}

// TARGET (server -> client)
type TargetMsg struct {
	Type  string `json:"type"`
	Voxel [3]int `json:"voxel"`
}

// VOXEL_SET (server -> client)
type VoxelSetMsg struct {
	Type     string `json:"type"`
	Pos      [3]int `json:"pos"`
	Material uint8  `json:"material"`
}

// CHUNK (server -> client)
type ChunkMsg struct {
	Type     string `json:"type"`
	Chunk    [3]int `json:"chunk"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"` // "RLE"
	Data     string `json:"data"`
	Digest   string `json:"digest"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
