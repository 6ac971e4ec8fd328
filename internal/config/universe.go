package config

// DefaultUniverse is scanned when the config names no symbols. It leans on
// liquid, gap-prone US names across sectors.
var DefaultUniverse = []string{
	// Mega cap tech
	"AAPL", "MSFT", "NVDA", "AMD", "GOOGL", "META", "AMZN", "TSLA",

	// Semiconductors
	"AVGO", "MU", "SMCI", "ARM", "MRVL", "INTC", "QCOM", "AMAT",
	"LRCX", "KLAC", "ASML", "TSM", "ON", "NXPI",

	// Software and cloud
	"PLTR", "CRM", "SNOW", "DDOG", "NET", "CRWD", "NOW", "ZS",
	"MDB", "PATH", "AI", "ADBE", "ORCL", "SHOP", "PANW", "FTNT",

	// AI and quantum
	"IONQ", "QUBT", "RGTI", "QBTS", "SOUN", "BBAI",

	// Fintech
	"COIN", "HOOD", "PYPL", "AFRM", "UPST", "SOFI", "V", "MA",

	// Consumer tech
	"SPOT", "RBLX", "SNAP", "PINS", "UBER", "LYFT", "ABNB", "DASH",
	"ROKU", "NFLX", "APP", "DKNG", "MELI",

	// EV and clean energy
	"RIVN", "LCID", "NIO", "XPEV", "PLUG", "ENPH", "FSLR", "RUN",

	// Crypto related
	"MSTR", "MARA", "RIOT", "CLSK", "IREN",

	// China ADRs
	"BABA", "JD", "PDD", "BIDU", "FUTU",

	// Biotech
	"MRNA", "BNTX", "CRSP", "HIMS", "VKTX", "LLY", "ABBV",

	// Defense and space
	"BA", "RKLB", "ASTS", "LUNR", "LMT",

	// Banks
	"JPM", "BAC", "GS", "MS", "SCHW",

	// Retail
	"WMT", "TGT", "COST", "CVNA", "ELF", "CELH", "LULU", "NKE",

	// Energy and materials
	"XOM", "CVX", "OXY", "FCX", "NEM", "CLF",

	// Travel and media
	"DAL", "UAL", "CCL", "DIS", "WBD",

	// High volatility
	"GME", "AMC", "JOBY", "ACHR", "TTD",
}
