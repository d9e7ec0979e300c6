package consts

// user-facing notices shared by the terminal and web desks
const (
	Msg_UplinkError = "System Error: Coaching uplink disconnected. Verify connection."
	Msg_NotImage    = "Invalid file type. Please upload an image (PNG, JPG)."
)
