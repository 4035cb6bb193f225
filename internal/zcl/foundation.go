package zcl

// Foundation ZCL command IDs (global, not cluster-specific).
const (
	FoundationReadAttributes         uint8 = 0x00
	FoundationReadAttributesResponse uint8 = 0x01
	FoundationWriteAttributes        uint8 = 0x02
	FoundationWriteAttributesResp    uint8 = 0x04
	FoundationConfigReporting        uint8 = 0x06
	FoundationConfigReportingResp    uint8 = 0x07
	FoundationReadReportingConfig    uint8 = 0x08
	FoundationReportAttributes       uint8 = 0x0A
	FoundationDefaultResponse        uint8 = 0x0B
	FoundationDiscoverAttributes     uint8 = 0x0C
	FoundationDiscoverAttributesResp uint8 = 0x0D
)

// ZCL status codes
const (
	ZCLStatusSuccess             uint8 = 0x00
	ZCLStatusFailure             uint8 = 0x01
	ZCLStatusMalformedCommand    uint8 = 0x80
	ZCLStatusUnsupClusterCommand uint8 = 0x81
	ZCLStatusUnsupGeneralCommand uint8 = 0x82
	ZCLStatusUnsupportedAttr     uint8 = 0x86
	ZCLStatusInvalidValue        uint8 = 0x87
	ZCLStatusReadOnly            uint8 = 0x88
	ZCLStatusNotFound            uint8 = 0x8B
	ZCLStatusUnreportable        uint8 = 0x8C
	ZCLStatusInvalidDataType     uint8 = 0x8D
)

// Frame control field bits.
const (
	FrameTypeGlobal         uint8 = 0x00
	FrameTypeCluster        uint8 = 0x01
	FrameTypeMask           uint8 = 0x03
	FrameMfrSpecific        uint8 = 0x04
	FrameDirServerToClient  uint8 = 0x08
	FrameDisableDefaultResp uint8 = 0x10
)

// ResponseFrameControl is the frame control byte of every general response this
// endpoint sends: profile-wide, server to client, default response disabled.
const ResponseFrameControl = FrameTypeGlobal | FrameDirServerToClient | FrameDisableDefaultResp

// Configure Reporting record directions.
const (
	ReportDirectionSend    uint8 = 0x00 // attribute is reported by this device
	ReportDirectionReceive uint8 = 0x01 // reports are expected from a peer
)

// StatusName returns a short name for a ZCL status code.
func StatusName(status uint8) string {
	switch status {
	case ZCLStatusSuccess:
		return "success"
	case ZCLStatusFailure:
		return "failure"
	case ZCLStatusMalformedCommand:
		return "malformed_command"
	case ZCLStatusUnsupClusterCommand:
		return "unsup_cluster_command"
	case ZCLStatusUnsupGeneralCommand:
		return "unsup_general_command"
	case ZCLStatusUnsupportedAttr:
		return "unsupported_attribute"
	case ZCLStatusInvalidValue:
		return "invalid_value"
	case ZCLStatusReadOnly:
		return "read_only"
	case ZCLStatusNotFound:
		return "not_found"
	case ZCLStatusUnreportable:
		return "unreportable_attribute"
	case ZCLStatusInvalidDataType:
		return "invalid_data_type"
	}
	return "unknown"
}
