package benchmarks

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
)

// startProfiling starts the cpu profile when --cpuprofile is set. The returned
// func stops it and writes the heap profile when --memprofile is set.
func startProfiling() (func(), error) {
	stop := func() {}
	if cpuprofile != "" {
		cpuProfPath := path.Join(saveFile, cpuprofile)
		fmt.Println("Profiling CPU to ", cpuProfPath)
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return stop, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stop = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}

	return func() {
		stop()
		if memprofile == "" {
			return
		}
		memProfPath := path.Join(saveFile, memprofile)
		fmt.Println("Profiling Memory to ", memProfPath)
		f, err := os.Create(memProfPath)
		if err != nil {
			fmt.Println("could not create memory profile: ", err)
			return
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Println("could not write memory profile: ", err)
		}
	}, nil
}
