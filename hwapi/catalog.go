// Package hwapi detects sensitive hardware API usage in compiled bytecode by
// looking for type descriptors in the raw dex payloads of an APK. It is a
// string heuristic, not a call-graph analysis.
package hwapi

// Pattern maps a type descriptor substring to the label reported for it.
type Pattern struct {
	Descriptor string
	Label      string
}

// Catalog ...
var Catalog = []Pattern{
	{Descriptor: "Landroid/hardware/Sensor;", Label: "android.hardware.Sensor"},
	{Descriptor: "Landroid/hardware/SensorManager;", Label: "android.hardware.SensorManager"},
	{Descriptor: "Landroid/hardware/SensorEvent;", Label: "android.hardware.SensorEvent"},
	{Descriptor: "Landroid/hardware/SensorEventListener;", Label: "android.hardware.SensorEventListener"},
	{Descriptor: "Landroid/hardware/camera2/", Label: "android.hardware.camera2"},
	{Descriptor: "Landroid/hardware/Camera;", Label: "android.hardware.Camera"},
	{Descriptor: "Landroid/location/LocationManager;", Label: "android.location.LocationManager"},
	{Descriptor: "Landroid/media/AudioRecord;", Label: "android.media.AudioRecord"},
	{Descriptor: "Landroid/bluetooth/", Label: "android.bluetooth"},
	{Descriptor: "Landroid/nfc/", Label: "android.nfc"},
	{Descriptor: "Landroid/hardware/fingerprint/", Label: "android.hardware.fingerprint"},
	{Descriptor: "Landroid/hardware/biometrics/", Label: "android.hardware.biometrics"},
}
