// Package metadata decodes Metaplex token metadata accounts.
package metadata

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/borsh"
	"github.com/code-payments/code-solana-sdk/pkg/solana/rpc"
)

// ProgramKey is the address of the Metaplex token metadata program.
var ProgramKey = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

const addressPrefix = "metadata"

var (
	ErrMetadataNotFound = errors.New("metadata not found")
	ErrInvalidMetadata  = errors.New("invalid metadata account")
)

type Key uint8

const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
)

type TokenStandard uint8

const (
	TokenStandardNonFungible TokenStandard = iota
	TokenStandardFungibleAsset
	TokenStandardFungible
	TokenStandardNonFungibleEdition
	TokenStandardProgrammableNonFungible
)

type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	// Share is the percentage of royalties paid to the creator.
	Share uint8
}

type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

// Data is the user facing portion of the metadata.
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

// Metadata is the account owned by the metadata program at the address
// derived from a mint.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/a7ee5e17a05ed21e1ba7b7de2c0a6a5ca4f6a5d7/programs/token-metadata/program/src/state/metadata.rs
type Metadata struct {
	Key                 Key
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool

	// The fields below were added to the account over time, and are nil for
	// accounts written before they existed.
	EditionNonce  *uint8
	TokenStandard *TokenStandard
	Collection    *Collection
	Uses          *Uses
}

// Schema is the Borsh layout of Metadata.
var Schema = borsh.Schema{
	"Creator": {
		{Name: "address", Type: borsh.PublicKey},
		{Name: "verified", Type: borsh.Bool},
		{Name: "share", Type: borsh.U8},
	},
	"Collection": {
		{Name: "verified", Type: borsh.Bool},
		{Name: "key", Type: borsh.PublicKey},
	},
	"Uses": {
		{Name: "useMethod", Type: borsh.U8},
		{Name: "remaining", Type: borsh.U64},
		{Name: "total", Type: borsh.U64},
	},
	"Data": {
		{Name: "name", Type: borsh.String},
		{Name: "symbol", Type: borsh.String},
		{Name: "uri", Type: borsh.String},
		{Name: "sellerFeeBasisPoints", Type: borsh.U16},
		{Name: "creators", Type: borsh.Option(borsh.Vec(borsh.Struct("Creator")))},
	},
	"Metadata": {
		{Name: "key", Type: borsh.U8},
		{Name: "updateAuthority", Type: borsh.PublicKey},
		{Name: "mint", Type: borsh.PublicKey},
		{Name: "data", Type: borsh.Struct("Data")},
		{Name: "primarySaleHappened", Type: borsh.Bool},
		{Name: "isMutable", Type: borsh.Bool},
		{Name: "editionNonce", Type: borsh.Option(borsh.U8)},
		{Name: "tokenStandard", Type: borsh.Option(borsh.U8)},
		{Name: "collection", Type: borsh.Option(borsh.Struct("Collection"))},
		{Name: "uses", Type: borsh.Option(borsh.Struct("Uses"))},
	},
}

// requiredFields is the number of leading Metadata fields present in every
// version of the account.
const requiredFields = 6

// DeriveAddress returns the metadata account address of mint.
func DeriveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	return solana.FindProgramAddress(
		ProgramKey,
		[]byte(addressPrefix),
		ProgramKey[:],
		mint[:],
	)
}

// Unmarshal decodes a metadata account. Optional fields missing from the
// end of the account are left nil. NUL padding is removed from the name,
// symbol and uri.
func (m *Metadata) Unmarshal(b []byte) error {
	r := borsh.NewReader(b)

	o := borsh.NewObject("Metadata")
	for i, f := range Schema["Metadata"] {
		if i >= requiredFields && r.Remaining() == 0 {
			o.Set(f.Name, nil)
			continue
		}

		v, err := borsh.ReadValue(r, Schema, f.Type)
		if err != nil {
			return errors.Wrapf(err, "Metadata.%s", f.Name)
		}
		o.Set(f.Name, v)
	}

	return m.fromObject(o)
}

func (m *Metadata) fromObject(o *borsh.Object) error {
	v := o.View()
	m.Key = Key(v.Uint8("key"))
	m.UpdateAuthority = v.PublicKey("updateAuthority")
	m.Mint = v.PublicKey("mint")
	data := v.Object("data")
	m.PrimarySaleHappened = v.Bool("primarySaleHappened")
	m.IsMutable = v.Bool("isMutable")
	editionNonce := v.Optional("editionNonce")
	tokenStandard := v.Optional("tokenStandard")
	collection := v.Optional("collection")
	uses := v.Optional("uses")
	if err := v.Err(); err != nil {
		return err
	}

	if err := m.Data.fromObject(data); err != nil {
		return errors.Wrap(err, "Metadata.data")
	}

	m.EditionNonce = nil
	if editionNonce != nil {
		n := editionNonce.(uint8)
		m.EditionNonce = &n
	}

	m.TokenStandard = nil
	if tokenStandard != nil {
		s := TokenStandard(tokenStandard.(uint8))
		m.TokenStandard = &s
	}

	m.Collection = nil
	if collection != nil {
		v := collection.(*borsh.Object).View()
		m.Collection = &Collection{
			Verified: v.Bool("verified"),
			Key:      v.PublicKey("key"),
		}
		if err := v.Err(); err != nil {
			return err
		}
	}

	m.Uses = nil
	if uses != nil {
		v := uses.(*borsh.Object).View()
		m.Uses = &Uses{
			UseMethod: UseMethod(v.Uint8("useMethod")),
			Remaining: v.Uint64("remaining"),
			Total:     v.Uint64("total"),
		}
		if err := v.Err(); err != nil {
			return err
		}
	}

	return nil
}

func (d *Data) fromObject(o *borsh.Object) error {
	v := o.View()
	d.Name = stripNUL(v.String("name"))
	d.Symbol = stripNUL(v.String("symbol"))
	d.URI = stripNUL(v.String("uri"))
	d.SellerFeeBasisPoints = v.Uint16("sellerFeeBasisPoints")
	creators := v.Optional("creators")
	if err := v.Err(); err != nil {
		return err
	}

	d.Creators = nil
	if creators == nil {
		return nil
	}

	for _, item := range creators.([]interface{}) {
		v := item.(*borsh.Object).View()
		d.Creators = append(d.Creators, Creator{
			Address:  v.PublicKey("address"),
			Verified: v.Bool("verified"),
			Share:    v.Uint8("share"),
		})
		if err := v.Err(); err != nil {
			return err
		}
	}

	return nil
}

// Marshal encodes the metadata with every optional field, the way current
// versions of the program write it.
func (m *Metadata) Marshal() ([]byte, error) {
	return borsh.Serialize(Schema, m.toObject())
}

func (m *Metadata) toObject() *borsh.Object {
	o := borsh.NewObject("Metadata").
		Set("key", uint8(m.Key)).
		Set("updateAuthority", m.UpdateAuthority).
		Set("mint", m.Mint).
		Set("data", m.Data.toObject()).
		Set("primarySaleHappened", m.PrimarySaleHappened).
		Set("isMutable", m.IsMutable).
		Set("editionNonce", nil).
		Set("tokenStandard", nil).
		Set("collection", nil).
		Set("uses", nil)

	if m.EditionNonce != nil {
		o.Set("editionNonce", *m.EditionNonce)
	}
	if m.TokenStandard != nil {
		o.Set("tokenStandard", uint8(*m.TokenStandard))
	}
	if m.Collection != nil {
		o.Set("collection", borsh.NewObject("Collection").
			Set("verified", m.Collection.Verified).
			Set("key", m.Collection.Key))
	}
	if m.Uses != nil {
		o.Set("uses", borsh.NewObject("Uses").
			Set("useMethod", uint8(m.Uses.UseMethod)).
			Set("remaining", m.Uses.Remaining).
			Set("total", m.Uses.Total))
	}

	return o
}

func (d *Data) toObject() *borsh.Object {
	o := borsh.NewObject("Data").
		Set("name", d.Name).
		Set("symbol", d.Symbol).
		Set("uri", d.URI).
		Set("sellerFeeBasisPoints", d.SellerFeeBasisPoints).
		Set("creators", nil)

	if d.Creators != nil {
		creators := make([]interface{}, len(d.Creators))
		for i, c := range d.Creators {
			creators[i] = borsh.NewObject("Creator").
				Set("address", c.Address).
				Set("verified", c.Verified).
				Set("share", c.Share)
		}
		o.Set("creators", creators)
	}

	return o
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// AccountInfoGetter is the subset of rpc.Client used to load metadata.
type AccountInfoGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.AccountInfo, error)
}

// GetMetadata loads the metadata of mint.
func GetMetadata(ctx context.Context, sc AccountInfoGetter, mint solana.PublicKey) (*Metadata, error) {
	address, err := DeriveAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := sc.GetAccountInfo(ctx, address)
	if errors.Is(err, rpc.ErrNoAccount) {
		return nil, ErrMetadataNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if info.Owner != ProgramKey {
		return nil, ErrInvalidMetadata
	}

	var m Metadata
	if err := m.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidMetadata, err.Error())
	}
	if m.Key != KeyMetadataV1 || m.Mint != mint {
		return nil, ErrInvalidMetadata
	}

	return &m, nil
}
