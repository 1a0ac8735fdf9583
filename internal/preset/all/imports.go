// Package all registers every built-in preset store backend. Import it for
// side effects:
//
//	import _ "pimformat/internal/preset/all"
package all

import (
	_ "pimformat/internal/preset/mssql"
	_ "pimformat/internal/preset/postgres"
	_ "pimformat/internal/preset/sqlite"
)
