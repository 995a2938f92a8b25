// Package env holds helpers shared by the daemon and client configurations.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineIDLen is the length of the ID derived from the machine id.
const MachineIDLen = 12

// MachineID retrieves the ID identifying the machine, hashed for the
// copi application so the raw machine id is never published.
func MachineID() string {
	id, err := machineid.ProtectedID("copi")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "copi"
		}
		return id
	}
	if len(id) > MachineIDLen {
		id = id[:MachineIDLen]
	}
	return id
}
