// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import "code.hybscloud.com/atomix"

// Serial identifies a Session in logs and metrics. Serials increase
// monotonically across all sessions of the process.
type Serial = uint32

var sessions atomix.Uint32

func nextSerial() Serial {
	return sessions.Add(1)
}
