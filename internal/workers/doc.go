/*
Package workers sizes the worker pools of the photo catalog in
containerized environments.

Go 1.19+ sets GOMAXPROCS from the container CPU limit, while
runtime.NumCPU() still reports host CPUs. Pool sizes are derived from
GOMAXPROCS so a pod limited to 2 CPUs on a 64-core node runs 2 decoders,
not 64.

	decoders := workers.ForDecode(8) // 1 per CPU, at most 8
	scanners := workers.ForScan(16)  // 2 per CPU, at most 16

Operators can pin either pool:

	PREVIEW_WORKERS=4
	SCAN_WORKERS=8
*/
package workers
