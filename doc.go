/*
Package dton implements SmDton, a compact, self-describing binary tree format
for JSON-like data. Buffers are built once, in a bounded number of passes, and
are then navigated in place without deserializing into intermediate objects.

Data Structure Documentation

Buffer

A buffer starts with a fixed header, followed by a node table, the per-node
property tables, a key segment and a value segment. All integers are
little-endian. Offsets, lengths, counts and node references are stored with a
single width W (1, 2 or 4 bytes), chosen per buffer as the narrowest width
that can address the whole buffer.

    Buffer layout:
    +--------+------------+-----------------+---+-------------+---+---------------+---+
    | header | node table | property tables | S | key segment | S | value segment | S |
    +--------+------------+-----------------+---+-------------+---+---------------+---+

    Header:
    +---------------+-------------+-----------------+----------------+------------------+---+
    | 0x01 (1 byte) | W (1 byte)  | node count (W)  | key count (W)  | value count (W)  | S |
    +---------------+-------------+-----------------+----------------+------------------+---+

S is the sentinel byte 0x77. Sentinels are structural markers only and are
not checked by lookups; see Reader.Verify.

Nodes

Nodes are maps or arrays, addressed by 1-based ids in creation order. Node 1
is the root. The node table holds one entry per node, pointing at the node's
property table. Property tables are contiguous, in node order.

    Node table entry:
    +-------------------+-----------------------------+
    | node type (1 byte)| property table offset (W)   |
    +-------------------+-----------------------------+

    Property table (map):
    +-------------+------------------+--------------------+-------+
    | entries (W) | key offset 1 (W) | value offset 1 (W) |  ...  |
    +-------------+------------------+--------------------+-------+

    Property table (array):
    +-------------+--------------------+-------+
    | entries (W) | value offset 1 (W) |  ...  |
    +-------------+--------------------+-------+

Keys

Keys are deduplicated per buffer and shared by all map nodes.

    +------------------+------------------+------------+
    | len(text)+1 (W)  | text (varlen)    | NUL        |
    +------------------+------------------+------------+

Values

Every value starts with a type tag. Fixed-width numbers and booleans follow
immediately. Strings and blobs carry a length, map and array values carry
the id of the referenced node instead of a payload.

    +---------------+--------------------------------+--------------------+
    | type (1 byte) | length or node id (W, if any)  | payload (varlen)   |
    +---------------+--------------------------------+--------------------+

Strings are stored with a trailing NUL, which is included in their length.

Overlays

A Dton reads through up to two buffers, a base and an update. Lookups prefer
the update, materialization merges the top-level keys of the update into the
base. Neither buffer is ever modified.
*/
package dton
