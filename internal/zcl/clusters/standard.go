// Package clusters is the catalog of standard ZCL cluster definitions an endpoint
// can expose. The endpoint builder takes attribute types and access flags from here.
package clusters

import "zigbee-endpoint/internal/zcl"

const (
	r   = zcl.AccessRead
	rw  = zcl.AccessRead | zcl.AccessWrite
	rp  = zcl.AccessRead | zcl.AccessReport
	rwp = zcl.AccessRead | zcl.AccessWrite | zcl.AccessReport
)

// Cluster IDs of the catalog.
const (
	IDBasic              uint16 = 0x0000
	IDPowerConfiguration uint16 = 0x0001
	IDIdentify           uint16 = 0x0003
	IDGroups             uint16 = 0x0004
	IDOnOff              uint16 = 0x0006
	IDLevelControl       uint16 = 0x0008
	IDTime               uint16 = 0x000A
	IDBinaryInput        uint16 = 0x000F
	IDIlluminance        uint16 = 0x0400
	IDTemperature        uint16 = 0x0402
	IDPressure           uint16 = 0x0403
	IDRelativeHumidity   uint16 = 0x0405
	IDOccupancy          uint16 = 0x0406
	IDWindowCovering     uint16 = 0x0102
	IDThermostat         uint16 = 0x0201
	IDColorControl       uint16 = 0x0300
	IDFlow               uint16 = 0x0404
	IDIASZone            uint16 = 0x0500
	IDMetering           uint16 = 0x0702
	IDElectrical         uint16 = 0x0B04
)

func attr(id uint16, name string, typeID, access uint8) zcl.AttributeDef {
	return zcl.AttributeDef{ID: id, Name: name, Type: typeID, Access: access}
}

// Standard lists the built-in cluster definitions.
var Standard = []zcl.ClusterDef{
	{ID: IDBasic, Name: "Basic", Attributes: []zcl.AttributeDef{
		attr(0x0000, "ZCLVersion", zcl.TypeUint8, r),
		attr(0x0001, "ApplicationVersion", zcl.TypeUint8, r),
		attr(0x0002, "StackVersion", zcl.TypeUint8, r),
		attr(0x0003, "HWVersion", zcl.TypeUint8, r),
		attr(0x0004, "ManufacturerName", zcl.TypeCharStr, r),
		attr(0x0005, "ModelIdentifier", zcl.TypeCharStr, r),
		attr(0x0006, "DateCode", zcl.TypeCharStr, r),
		attr(0x0007, "PowerSource", zcl.TypeEnum8, r),
		attr(0x4000, "SWBuildID", zcl.TypeCharStr, r),
	}},
	{ID: IDPowerConfiguration, Name: "Power Configuration", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MainsVoltage", zcl.TypeUint16, r),
		attr(0x0001, "MainsFrequency", zcl.TypeUint8, r),
		attr(0x0020, "BatteryVoltage", zcl.TypeUint8, rp),
		attr(0x0021, "BatteryPercentageRemaining", zcl.TypeUint8, rp),
		attr(0x0031, "BatterySize", zcl.TypeEnum8, rw),
		attr(0x0033, "BatteryQuantity", zcl.TypeUint8, rw),
		attr(0x0035, "BatteryAlarmMask", zcl.TypeBitmap8, rw),
	}},
	{ID: IDIdentify, Name: "Identify", Attributes: []zcl.AttributeDef{
		attr(0x0000, "IdentifyTime", zcl.TypeUint16, rw),
	}},
	{ID: IDGroups, Name: "Groups", Attributes: []zcl.AttributeDef{
		attr(0x0000, "NameSupport", zcl.TypeBitmap8, r),
	}},
	{ID: IDOnOff, Name: "On/Off", Attributes: []zcl.AttributeDef{
		attr(0x0000, "OnOff", zcl.TypeBool, rp),
		attr(0x4000, "GlobalSceneControl", zcl.TypeBool, r),
		attr(0x4001, "OnTime", zcl.TypeUint16, rw),
		attr(0x4002, "OffWaitTime", zcl.TypeUint16, rw),
		attr(0x4003, "StartUpOnOff", zcl.TypeEnum8, rw),
	}},
	{ID: IDLevelControl, Name: "Level Control", Attributes: []zcl.AttributeDef{
		attr(0x0000, "CurrentLevel", zcl.TypeUint8, rp),
		attr(0x0001, "RemainingTime", zcl.TypeUint16, r),
		attr(0x000F, "Options", zcl.TypeBitmap8, rw),
		attr(0x0010, "OnOffTransitionTime", zcl.TypeUint16, rw),
		attr(0x0011, "OnLevel", zcl.TypeUint8, rw),
	}},
	{ID: IDTime, Name: "Time", Attributes: []zcl.AttributeDef{
		attr(0x0000, "Time", zcl.TypeUTC, rw),
		attr(0x0001, "TimeStatus", zcl.TypeBitmap8, rw),
		attr(0x0002, "TimeZone", zcl.TypeInt32, rw),
	}},
	{ID: IDBinaryInput, Name: "Binary Input (Basic)", Attributes: []zcl.AttributeDef{
		attr(0x001C, "Description", zcl.TypeCharStr, rw),
		attr(0x0051, "OutOfService", zcl.TypeBool, rw),
		attr(0x0055, "PresentValue", zcl.TypeBool, rwp),
		attr(0x006F, "StatusFlags", zcl.TypeBitmap8, rp),
	}},
	{ID: IDIlluminance, Name: "Illuminance Measurement", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasuredValue", zcl.TypeUint16, rp),
		attr(0x0001, "MinMeasuredValue", zcl.TypeUint16, r),
		attr(0x0002, "MaxMeasuredValue", zcl.TypeUint16, r),
		attr(0x0004, "LightSensorType", zcl.TypeEnum8, r),
	}},
	{ID: IDTemperature, Name: "Temperature Measurement", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasuredValue", zcl.TypeInt16, rp),
		attr(0x0001, "MinMeasuredValue", zcl.TypeInt16, r),
		attr(0x0002, "MaxMeasuredValue", zcl.TypeInt16, r),
		attr(0x0003, "Tolerance", zcl.TypeUint16, r),
	}},
	{ID: IDPressure, Name: "Pressure Measurement", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasuredValue", zcl.TypeInt16, rp),
		attr(0x0001, "MinMeasuredValue", zcl.TypeInt16, r),
		attr(0x0002, "MaxMeasuredValue", zcl.TypeInt16, r),
	}},
	{ID: IDRelativeHumidity, Name: "Relative Humidity", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasuredValue", zcl.TypeUint16, rp),
		attr(0x0001, "MinMeasuredValue", zcl.TypeUint16, r),
		attr(0x0002, "MaxMeasuredValue", zcl.TypeUint16, r),
	}},
	{ID: IDOccupancy, Name: "Occupancy Sensing", Attributes: []zcl.AttributeDef{
		attr(0x0000, "Occupancy", zcl.TypeBitmap8, rp),
		attr(0x0001, "OccupancySensorType", zcl.TypeEnum8, r),
		attr(0x0010, "PIROccupiedToUnoccupiedDelay", zcl.TypeUint16, rw),
	}},
	{ID: IDWindowCovering, Name: "Window Covering", Attributes: []zcl.AttributeDef{
		attr(0x0000, "WindowCoveringType", zcl.TypeEnum8, r),
		attr(0x0007, "ConfigStatus", zcl.TypeBitmap8, r),
		attr(0x0008, "CurrentPositionLiftPercentage", zcl.TypeUint8, rp),
		attr(0x0009, "CurrentPositionTiltPercentage", zcl.TypeUint8, rp),
		attr(0x0017, "Mode", zcl.TypeBitmap8, rw),
	}},
	{ID: IDThermostat, Name: "Thermostat", Attributes: []zcl.AttributeDef{
		attr(0x0000, "LocalTemperature", zcl.TypeInt16, rp),
		attr(0x0003, "AbsMinHeatSetpointLimit", zcl.TypeInt16, r),
		attr(0x0004, "AbsMaxHeatSetpointLimit", zcl.TypeInt16, r),
		attr(0x0011, "OccupiedCoolingSetpoint", zcl.TypeInt16, rw),
		attr(0x0012, "OccupiedHeatingSetpoint", zcl.TypeInt16, rwp),
		attr(0x001B, "ControlSequenceOfOperation", zcl.TypeEnum8, rw),
		attr(0x001C, "SystemMode", zcl.TypeEnum8, rwp),
		attr(0x0029, "RunningState", zcl.TypeBitmap16, rp),
	}},
	{ID: IDColorControl, Name: "Color Control", Attributes: []zcl.AttributeDef{
		attr(0x0000, "CurrentHue", zcl.TypeUint8, rp),
		attr(0x0001, "CurrentSaturation", zcl.TypeUint8, rp),
		attr(0x0003, "CurrentX", zcl.TypeUint16, rp),
		attr(0x0004, "CurrentY", zcl.TypeUint16, rp),
		attr(0x0007, "ColorTemperatureMireds", zcl.TypeUint16, rp),
		attr(0x0008, "ColorMode", zcl.TypeEnum8, r),
		attr(0x400A, "ColorCapabilities", zcl.TypeBitmap16, r),
	}},
	{ID: IDFlow, Name: "Flow Measurement", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasuredValue", zcl.TypeUint16, rp),
		attr(0x0001, "MinMeasuredValue", zcl.TypeUint16, r),
		attr(0x0002, "MaxMeasuredValue", zcl.TypeUint16, r),
	}},
	{ID: IDIASZone, Name: "IAS Zone", Attributes: []zcl.AttributeDef{
		attr(0x0000, "ZoneState", zcl.TypeEnum8, r),
		attr(0x0001, "ZoneType", zcl.TypeEnum16, r),
		attr(0x0002, "ZoneStatus", zcl.TypeBitmap16, rp),
		attr(0x0010, "IASCIEAddress", zcl.TypeEUI64, rw),
		attr(0x0011, "ZoneID", zcl.TypeUint8, r),
	}},
	// Metering attributes use the 24/48-bit widths.
	{ID: IDMetering, Name: "Metering", Attributes: []zcl.AttributeDef{
		attr(0x0000, "CurrentSummationDelivered", zcl.TypeUint48, rp),
		attr(0x0200, "Status", zcl.TypeBitmap8, r),
		attr(0x0300, "UnitOfMeasure", zcl.TypeEnum8, r),
		attr(0x0301, "Multiplier", zcl.TypeUint24, r),
		attr(0x0302, "Divisor", zcl.TypeUint24, r),
		attr(0x0400, "InstantaneousDemand", zcl.TypeInt24, rp),
	}},
	{ID: IDElectrical, Name: "Electrical Measurement", Attributes: []zcl.AttributeDef{
		attr(0x0000, "MeasurementType", zcl.TypeBitmap32, r),
		attr(0x0505, "RMSVoltage", zcl.TypeUint16, rp),
		attr(0x0508, "RMSCurrent", zcl.TypeUint16, rp),
		attr(0x050B, "ActivePower", zcl.TypeInt16, rp),
		attr(0x0600, "ACVoltageMultiplier", zcl.TypeUint16, r),
		attr(0x0601, "ACVoltageDivisor", zcl.TypeUint16, r),
	}},
}

// RegisterStandard adds every catalog cluster to the registry.
func RegisterStandard(reg *zcl.Registry) {
	for _, c := range Standard {
		reg.Register(c)
	}
}
