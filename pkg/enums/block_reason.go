package enums

// BlockReason maps to the block_reason enum in Postgres.
type BlockReason string

const (
	BlockReasonMaintenance BlockReason = "maintenance"
	BlockReasonHoliday     BlockReason = "holiday"
	BlockReasonOwnerBlock  BlockReason = "owner-block"
	BlockReasonWeather     BlockReason = "weather"
	BlockReasonOther       BlockReason = "other"
)

var blockReasons = []BlockReason{
	BlockReasonMaintenance,
	BlockReasonHoliday,
	BlockReasonOwnerBlock,
	BlockReasonWeather,
	BlockReasonOther,
}

// BlockReasons returns a copy of the reasons in display order.
func BlockReasons() []BlockReason { return append([]BlockReason(nil), blockReasons...) }

func (r BlockReason) String() string { return string(r) }

func (r BlockReason) IsValid() bool { return member(blockReasons, r) }

func ParseBlockReason(raw string) (BlockReason, error) {
	return parse(blockReasons, raw, "block reason")
}
